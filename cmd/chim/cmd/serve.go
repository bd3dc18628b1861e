/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/api"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the chim REST API server. Conversion, inspection and the
document archive are served under /api/v1 behind the X-API-Key header;
Prometheus metrics are served at /metrics.

Examples:
  chim serve
  chim serve --port 9000 --bind 0.0.0.0
  CHIM_SECURITY_API_KEY=secret chim serve --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd, s)
		},
	}

	addServerFlags(serveCmd)
	return serveCmd
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	cmd.Flags().String("api-key", "", "API key for request authentication")
	cmd.Flags().Int64("max-size", 64<<20, "Largest accepted document in bytes")
}

// runServer opens the archive and serves the API until interrupted
func runServer(cmd *cobra.Command, s *settings) error {
	cfg := s.config
	if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
		return errors.New("no API key configured (run 'chim init' or pass --api-key)")
	}
	if container == nil {
		return errors.New("dependency container not initialized")
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	archive, err := container.GetArchiveFactory().OpenArchive(cfg.DataDir, cfg.Security.MaxDocumentSize, s.logger)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("serving", "bind", cfg.Bind, "port", cfg.Port, "data_dir", cfg.DataDir)
	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, archive, api.ServerConfig{
		Port:            cfg.Port,
		Bind:            cfg.Bind,
		APIKey:          cfg.Security.APIKey,
		Layout:          cfg.HexLayout(),
		MaxDocumentSize: cfg.Security.MaxDocumentSize,
	}, s.logger)
}
