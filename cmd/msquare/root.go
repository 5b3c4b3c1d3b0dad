package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/msquare"
	"github.com/aretw0/msquare/internal/cli"
	"github.com/aretw0/msquare/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "msquare",
	Short: "MSquare Architects site backend",
	Long: `msquare serves the contact form and portfolio API of the MSquare Architects site,
exposes them to AI agents over MCP and previews the stacking-cards scroll effect in the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "msquare.yaml", "Path to the YAML or JSON config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logs on stderr")
}

// loadConfig reads the config file named by --config and builds the logger.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, cli.NewLogger(debug, cfg.LogLevel), nil
}

// openSite loads the config and wires the site services.
func openSite(cmd *cobra.Command) (*msquare.Site, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	site, err := msquare.New(cfg, msquare.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize msquare: %w", err)
	}
	return site, logger, nil
}
