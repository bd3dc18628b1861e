/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Write a configuration file holding the current settings and a freshly
generated API key for the REST API, and create the data directory.

Examples:
  chim init
  chim init --config ./chim.yaml --data-dir ./data --print-key
  chim init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			if config.ConfigExists(s.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", s.configPath)
				return nil
			}

			cfg := *s.config
			apiKey, err := config.GenerateSecureKey(32) // 256 bits
			if err != nil {
				return err
			}
			cfg.Security.APIKey = apiKey

			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			if err := config.SaveConfig(&cfg, s.configPath); err != nil {
				return err
			}

			cmd.Printf("✅ Configuration written to %s\n", s.configPath)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			if printKey {
				cmd.Printf("API key: %s\n", apiKey)
			}
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  chim serve --config %s\n", s.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
	return initCmd
}
