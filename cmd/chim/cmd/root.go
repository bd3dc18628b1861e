/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ssargent/chim/pkg/config"
	"github.com/ssargent/chim/pkg/di"
	"github.com/ssargent/chim/pkg/logging"
)

// EnvPrefix prefixes every environment variable read by the CLI
const EnvPrefix = "CHIM"

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

type contextKey struct{}

// settings is the resolved configuration shared by every command
type settings struct {
	config     *config.Config
	configPath string
	logger     *log.Logger
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"data-dir":    "data_dir",
	"log-level":   "logging.level",
	"row-width":   "render.row_width",
	"group-width": "render.group_width",
	"port":        "port",
	"bind":        "bind",
	"api-key":     "security.api_key",
	"max-size":    "security.max_document_size",
}

// NewRootCmd builds the chim command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chim",
		Short: "chim - chunked container converter",
		Long: `chim converts TES3-style chunked binary containers to a readable XML
document and rebuilds byte-identical binaries from that XML.

Configuration is read from the YAML config file, then CHIM_* environment
variables, then command line flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, s))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the document archive")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("row-width", 32, "Bytes per line of rendered hex (0 for one line)")
	rootCmd.PersistentFlags().Int("group-width", 4, "Bytes per space-separated hex group (0 for no grouping)")

	rootCmd.AddCommand(
		newConvertCmd(),
		newInspectCmd(),
		newInitCmd(),
		newServeCmd(),
		newUpCmd(),
		newArchiveCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings layers the config file, CHIM_* environment variables and
// explicitly set flags, in that order of precedence
func loadSettings(cmd *cobra.Command) (*settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	base := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		base = loaded
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", base.DataDir)
	v.SetDefault("port", base.Port)
	v.SetDefault("bind", base.Bind)
	v.SetDefault("render.row_width", base.Render.RowWidth)
	v.SetDefault("render.group_width", base.Render.GroupWidth)
	v.SetDefault("security.api_key", base.Security.APIKey)
	v.SetDefault("security.max_document_size", base.Security.MaxDocumentSize)
	v.SetDefault("logging.level", base.Logging.Level)

	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if key, ok := flagKeys[flag.Name]; ok && flag.Changed {
			bindErr = errors.Join(bindErr, v.BindPFlag(key, flag))
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg := &config.Config{
		DataDir: v.GetString("data_dir"),
		Port:    v.GetInt("port"),
		Bind:    v.GetString("bind"),
		Render: config.Render{
			RowWidth:   v.GetInt("render.row_width"),
			GroupWidth: v.GetInt("render.group_width"),
		},
		Security: config.Security{
			APIKey:          v.GetString("security.api_key"),
			MaxDocumentSize: v.GetInt64("security.max_document_size"),
		},
		Logging: config.Logging{
			Level: v.GetString("logging.level"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Configure(cmd.ErrOrStderr(), cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration resolved", "config", configPath, "data_dir", cfg.DataDir)

	return &settings{config: cfg, configPath: configPath, logger: logger}, nil
}

// settingsFrom returns the settings resolved by the root command
func settingsFrom(cmd *cobra.Command) (*settings, error) {
	s, ok := cmd.Context().Value(contextKey{}).(*settings)
	if !ok {
		return nil, errors.New("settings not found in context")
	}
	return s, nil
}
