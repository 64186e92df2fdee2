package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/backoffice/internal/config"
)

// errConfigExists is returned by config init when the target file exists.
var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

// NewConfigInitCmd creates the config init command.
// Inside a project with a .backoffice/ directory it writes the project-local
// config and a .gitignore; otherwise it writes the global config.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

When run inside a project that has a .backoffice/ directory, creates
$PROJECT/.backoffice/config.yaml with a .gitignore that keeps the local
scan item store out of version control. Use --global to write
$BACKOFFICE_HOME/config.yaml instead.`,
		Example: `  # Create global configuration
  backoffice config init --global

  # Create configuration, overwriting existing
  backoffice config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()
			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}
			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "write the global configuration even inside a project")
	return cmd
}

// checkWritable returns errConfigExists unless path is absent or force is set.
func checkWritable(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return errConfigExists
	case os.IsNotExist(err):
		return nil
	default:
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
}

func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := checkWritable(configPath, force); err != nil {
		return err
	}

	if err := config.Defaults().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	changed, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if changed {
		cmd.Printf("Updated .gitignore to keep local data out of version control\n")
	}
	return nil
}

func initGlobalConfig(cmd *cobra.Command, force bool) error {
	configPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if err = checkWritable(configPath, force); err != nil {
		return err
	}

	if err = config.Defaults().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", configPath)
	return nil
}

// NewConfigShowCmd creates the config show command, which prints the
// effective configuration after files, environment and flags are merged.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshalling config: %w", err)
			}
			cmd.Print(string(data))

			storePath, err := cfg.StorePath()
			if err == nil {
				cmd.Printf("# store file: %s\n", storePath)
			}
			if dir := config.GetResolvedProjectDir(); dir != "" {
				cmd.Printf("# project dir: %s\n", dir)
			}
			return nil
		},
	}
}

// configPageSize returns the configured default page size.
func configPageSize() int {
	return config.GetGlobalConfig().Output.PageSize
}

// configItemDelay returns the configured pause between bulk items.
func configItemDelay() time.Duration {
	return config.GetGlobalConfig().Batch.ItemDelay.Std()
}

// configStopOnError reports whether bulk runs stop at the first failure by default.
func configStopOnError() bool {
	return config.GetGlobalConfig().Batch.StopOnError
}

// parseItemDelay parses a --delay value.
func parseItemDelay(v string) (time.Duration, error) {
	d, err := config.ParseDelay(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --delay %q: %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid --delay %q: %w", v, config.ErrNegativeItemDelay)
	}
	return d, nil
}
