package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/internal/config"
)

// configHeader is written above the generated YAML.
const configHeader = `# sagequery configuration.
#
# servers lists the SaGe servers queries can target; default_server names the
# one used when --server is not given. Any key may be overridden with a
# SAGEQUERY_* environment variable, and a .sagequery/config.yaml in a project
# directory replaces whole top-level sections of this file.
`

// NewConfigInitCmd creates the config init command for initializing configuration.
// Inside a directory holding a .sagequery/ project (without --global), it writes
// the project overlay and a .gitignore. Otherwise it writes the global file.
func NewConfigInitCmd() *cobra.Command {
	var (
		force   bool
		global  bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

Inside a project (a directory tree holding .sagequery/), writes
$PROJECT/.sagequery/config.yaml with a .gitignore for the cache and history.
Use --project to create .sagequery/ in the current directory, or --global to
write ~/.sagequery/config.yaml even inside a project.`,
		Example: `  # Create the global configuration
  sagequery config init

  # Start a project overlay in the current directory
  sagequery config init --project

  # Overwrite an existing configuration
  sagequery config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global && project {
				return errors.New("--global and --project are mutually exclusive")
			}
			if project {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting working directory: %w", err)
				}
				return initProjectConfig(cmd, filepath.Join(wd, config.ProjectDirName), force)
			}

			flagDir, _ := cmd.Flags().GetString("project-dir")
			wd, _ := os.Getwd()
			if projectDir := config.ResolveProjectDir(cmd.Context(), flagDir, wd); projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}
			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "write the global configuration even inside a project")
	cmd.Flags().BoolVar(&project, "project", false, "create a project overlay in the current directory")

	return cmd
}

// initProjectConfig creates project-local config at projectDir/config.yaml with .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := writeDefaultConfig(configPath, force); err != nil {
		return err
	}

	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore for the cache and history\n")
	}
	return nil
}

// initGlobalConfig creates global config at ~/.sagequery/config.yaml.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if err = writeDefaultConfig(path, force); err != nil {
		return err
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", path)
	return nil
}

// writeDefaultConfig writes the built-in defaults with a comment header.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err = os.WriteFile(path, append([]byte(configHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
