// Package main is the entry point for the vectord CLI.
//
//	@title			Vectord API
//	@version		1.0
//	@description	CPU-bound text embedding inference service
//	@host			localhost:8008
//	@BasePath		/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/embedware/vectord/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectord",
		Short: "Vectord embedding inference server",
		Long:  `Vectord encodes batches of text into fixed-dimension vectors over a small HTTP API, using a local CPU ONNX model or an OpenAI-compatible backend.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
