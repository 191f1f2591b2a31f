package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/mcpclient"
)

// clientOptions select the server a client command talks to
type clientOptions struct {
	url     string
	command string
	timeout time.Duration
}

// transportConfig prefers a spawned stdio server when --command is set
func (o *clientOptions) transportConfig() (*mcpclient.TransportConfig, error) {
	if o.command != "" {
		fields := strings.Fields(o.command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("--command is empty")
		}
		return &mcpclient.TransportConfig{
			Type:    mcpclient.TransportStdio,
			Command: fields[0],
			Args:    fields[1:],
			Timeout: o.timeout,
		}, nil
	}

	if o.url == "" {
		return nil, fmt.Errorf("either --url or --command is required")
	}
	return &mcpclient.TransportConfig{
		Type:    mcpclient.TransportHTTP,
		URL:     o.url,
		Timeout: o.timeout,
	}, nil
}

// run dials the server, performs the handshake and hands the client to fn
func (o *clientOptions) run(cmd *cobra.Command, fn func(ctx context.Context, c *mcpclient.Client) (interface{}, error)) error {
	cfg, err := o.transportConfig()
	if err != nil {
		return err
	}

	client, err := mcpclient.Dial(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := client.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}

	result, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func newClientCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running MCP server",
		Long: `Send requests to a weather-mcp server reachable over HTTP (--url)
or spawned as a stdio subprocess (--command).`,
	}

	defaults := mcpclient.DefaultTransportConfig()
	cmd.PersistentFlags().StringVar(&opts.url, "url", defaults.URL, "MCP HTTP endpoint")
	cmd.PersistentFlags().StringVar(&opts.command, "command", "", "spawn a stdio server, e.g. \"weather-mcp stdio\"")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "request timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "resources",
		Short: "List resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.ListResources(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "read <uri>",
		Short: "Read a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.ReadResource(ctx, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.ListTools(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "call <tool> [arguments-json]",
		Short: "Call a tool",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := jsonObjectArg(args, 1)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.CallTool(ctx, args[0], toolArgs)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prompts",
		Short: "List prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.ListPrompts(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prompt <name> [arguments-json]",
		Short: "Render a prompt",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptArgs, err := jsonObjectArg(args, 1)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.GetPrompt(ctx, args[0], promptArgs)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "raw <method> [params-json]",
		Short: "Send any request and print the full response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := jsonObjectArg(args, 1)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *mcpclient.Client) (interface{}, error) {
				return c.Call(ctx, args[0], params)
			})
		},
	})

	return cmd
}
