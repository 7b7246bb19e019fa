package cmd

import (
	"fmt"
	"os"
	"strings"

	"mdview/pkg/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mdview configuration",
	Long:  `Show the effective configuration and where it is read from.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration after environment overrides and defaults are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(cfg)
		}

		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Printf("Max File Size: %d bytes\n", cfg.Launch.MaxFileSize)
		fmt.Printf("Extensions: %s\n", strings.Join(cfg.Launch.Extensions, ", "))
		fmt.Println()
		fmt.Printf("Clipboard Backend: %s\n", cfg.Clipboard.Backend)
		fmt.Printf("Clipboard Timeout: %s\n", cfg.Clipboard.Timeout)
		fmt.Println()
		if cfg.History.Disabled {
			fmt.Println("History: (disabled)")
		} else {
			fmt.Printf("History: %s\n", cfg.HistoryPath())
			fmt.Printf("History Limit: %d\n", cfg.History.Limit)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			if err := RequireConfirmation("overwrite the config file", map[string]string{"Path": path}); err != nil {
				return err
			}
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}
