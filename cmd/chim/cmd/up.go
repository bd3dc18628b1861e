/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/config"
)

func newUpCmd() *cobra.Command {
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap configuration if needed and start the server",
		Long: `Create a configuration file with a generated API key if none exists,
then start the REST API server. This is the recommended way to get chim
serving.

Examples:
  chim up
  chim up --data-dir ./mydata --port 9000
  chim up --config ./custom-config.yaml --print-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			printKey, _ := cmd.Flags().GetBool("print-key")

			if !config.ConfigExists(s.configPath) {
				cmd.Printf("🔧 First run detected. Bootstrapping chim...\n")
				bootstrapped, err := config.BootstrapConfig(s.configPath, s.config.DataDir)
				if err != nil {
					return err
				}
				cmd.Printf("✅ Configuration created at %s\n", s.configPath)
				if printKey {
					cmd.Printf("API key: %s\n", bootstrapped.Security.APIKey)
				}
				if s.config.Security.APIKey == "" || s.config.Security.APIKey == "auto" {
					s.config.Security.APIKey = bootstrapped.Security.APIKey
				}
			}

			cmd.Printf("🚀 Starting chim server on %s:%d\n", s.config.Bind, s.config.Port)
			cmd.Printf("📁 Data directory: %s\n", s.config.DataDir)
			return runServer(cmd, s)
		},
	}

	addServerFlags(upCmd)
	upCmd.Flags().Bool("print-key", false, "Print a newly generated API key")
	return upCmd
}
