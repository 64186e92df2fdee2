package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/backoffice/internal/config"
	"github.com/rshade/backoffice/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the backoffice CLI.
// It wires up configuration, logging and tracing, then the items, folders
// and config command groups.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult  *logging.LogPathResult
		configPath string
		projectDir string
	)

	cmd := &cobra.Command{
		Use:           "backoffice",
		Short:         "Manage scan items and folders from the command line",
		Long:          "backoffice: browse the scan-item catalog and run bulk moves and deletes with live progress",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd.Context(), configPath, projectDir); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging to stderr")
	cmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides logging.level)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $BACKOFFICE_HOME/config.yaml)")
	cmd.PersistentFlags().String("store", "", "scan item store file (overrides store.path)")
	cmd.PersistentFlags().StringVar(&projectDir, "project-dir", "", "project directory containing .backoffice/")

	cmd.AddCommand(newItemsCmd(), newFoldersCmd(), newConfigCmd())
	return cmd
}

const rootCmdExample = `  # List items in a folder, 20 per page
  backoffice items list --folder "Spring campaign" --page 1 --page-size 20

  # Register a new code
  backoffice items add QR-000123 --label "Lobby poster"

  # Move items into a folder, pausing 250ms between API calls
  backoffice items move 01J8Z... 01J90... --folder "Spring campaign" --delay 250ms

  # Delete items without the confirmation prompt
  backoffice items delete 01J8Z... --force

  # Write a default configuration file
  backoffice config init`

// loadConfig installs the global configuration. An explicit --config file must
// exist and validate; otherwise global and project-local files are merged.
func loadConfig(ctx context.Context, configPath, projectDirFlag string) error {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		config.SetGlobalConfig(cfg)
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	projectDir := config.ResolveProjectDir(ctx, projectDirFlag, wd)
	config.SetResolvedProjectDir(projectDir)

	cfg := config.NewWithProjectDir(ctx, projectDir)
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
