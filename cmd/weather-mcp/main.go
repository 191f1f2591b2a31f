package main

// Package main provides the entry point for the weather-mcp server.
import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/cli"
)

func main() {
	// Until config is loaded, log to stderr; stdout carries the stdio protocol
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := cli.Execute(); err != nil {
		log.Fatal().Err(err).Msg("weather-mcp failed")
	}
}
