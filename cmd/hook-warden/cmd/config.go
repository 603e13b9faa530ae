package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hookwarden/hookwarden/internal/config"
)

var configGlobal bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the built-in defaults",
	Long: `Write the fully defaulted configuration to .hook-warden.yaml in the
current directory, or to ~/.hook-warden/hook-warden.yaml with --global.
Refuses to overwrite an existing file.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective merged configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("global:  %s\n", config.GlobalConfigPath())
		fmt.Printf("project: %s\n", config.ProjectConfigPath(""))
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configGlobal, "global", false, "write the global config instead of the project one")
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ProjectConfigPath("")
	if configGlobal {
		path = config.GlobalConfigPath()
		if path == "" {
			return fmt.Errorf("cannot determine home directory")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	provider := configProvider("", newLogger("warn"))
	data, err := yaml.Marshal(provider.Config())
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
