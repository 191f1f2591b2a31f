package cli

// Package cli provides the weather-mcp command tree.
// Serves stdio or HTTP, replays the demo and talks to running servers.
import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Denis-Chistyakov/weather-mcp/internal/analytics"
	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/config"
	httpgw "github.com/Denis-Chistyakov/weather-mcp/internal/gateway/http"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/version"
	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// options holds the persistent flags shared by every command
type options struct {
	configFile string
	logLevel   string
	logFormat  string
}

// app is the wired server side of the binary
type app struct {
	config    *types.Config
	catalog   *catalog.Catalog
	collector *analytics.Collector
	server    *mcp.Server
}

// bootstrap loads configuration, applies flag overrides and wires the
// dispatcher. Logs go to logOut.
func (o *options) bootstrap(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.logLevel != "" {
		cfg.Observability.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Observability.Logging.Format = o.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	setupLogging(cfg.Observability.Logging, logOut)

	// never log the key itself
	log.Info().
		Str("server", cfg.Server.Name).
		Bool("api_key_configured", cfg.Weather.APIKeyConfigured()).
		Msg("Configuration loaded")

	cat := catalog.New(weather.NewService())
	collector := analytics.NewCollector(cfg.Analytics.Enabled)
	server := mcp.NewServer(cat,
		mcp.WithServerInfo(cfg.Server),
		mcp.WithRecorder(collector),
	)

	return &app{
		config:    cfg,
		catalog:   cat,
		collector: collector,
		server:    server,
	}, nil
}

// NewRootCmd builds the command tree. With no subcommand it serves stdio.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "weather-mcp",
		Short: "weather-mcp - MCP demo server with mock weather data",
		Long: `weather-mcp serves weather resources, tools and prompts over the
Model Context Protocol (JSON-RPC 2.0).

Run without a subcommand to serve on stdin/stdout.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: search ./configs, ., /etc/weather-mcp)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(newStdioCmd(opts))
	root.AddCommand(newHTTPCmd(opts))
	root.AddCommand(newDemoCmd(opts))
	root.AddCommand(newCallCmd(opts))
	root.AddCommand(newClientCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newStdioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd, opts)
		},
	}
}

func runStdio(cmd *cobra.Command, opts *options) error {
	a, err := opts.bootstrap(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("name", a.config.Server.Name).
		Str("version", a.config.Server.Version).
		Msg("Starting MCP stdio server")

	transport := mcp.NewStdioTransport(a.server, cmd.InOrStdin(), cmd.OutOrStdout())
	if err := transport.Serve(ctx); err != nil {
		return fmt.Errorf("stdio server failed: %w", err)
	}

	log.Info().Msg("MCP stdio server stopped")
	return nil
}

func newHTTPCmd(opts *options) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP and the REST API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				a.config.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.config.HTTP.Port = port
			}
			if err := config.Validate(a.config); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("name", a.config.Server.Name).
				Bool("analytics", a.collector.Enabled()).
				Msg("Configured MCP server")

			return httpgw.NewServer(a.server, a.catalog, a.collector, a.config.HTTP).Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides http.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides http.port)")

	return cmd
}

func newDemoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Replay example requests against an in-process server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return RunDemo(a.server, cmd.OutOrStdout())
		},
	}
}

func newCallCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Dispatch one request in-process and print the response",
		Example: `  weather-mcp call tools/list
  weather-mcp call tools/call '{"name":"get_weather","arguments":{"location":"Tokyo"}}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := jsonObjectArg(args, 1)
			if err != nil {
				return err
			}

			a, err := opts.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			resp := a.server.Handle(types.TransportInProcess, &types.MCPRequest{
				JSONRPC: types.JSONRPCVersion,
				ID:      1,
				Method:  args[0],
				Params:  params,
			})
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return printJSON(cmd.OutOrStdout(), version.Info())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// jsonObjectArg decodes args[i] as a JSON object; a missing arg yields nil
func jsonObjectArg(args []string, i int) (map[string]interface{}, error) {
	if len(args) <= i || args[i] == "" {
		return nil, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(args[i]), &obj); err != nil {
		return nil, fmt.Errorf("argument must be a JSON object: %w", err)
	}
	return obj, nil
}

// printJSON writes data as indented JSON
func printJSON(w io.Writer, data interface{}) error {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bytes))
	return err
}
