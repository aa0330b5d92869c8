package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Andrew-Beniash/tai/config"
)

var configOut string

// configCmd 导出当前生效的配置
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to a YAML file",
	Long: `Resolve the configuration the server would use (config file, then
environment overrides, then defaults) and write it out as YAML. Useful
as a starting config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVarP(&configOut, "out", "o", "config.yaml", "Output path")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if err := config.GetConfig().Save(configOut); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", configOut)
	return nil
}
