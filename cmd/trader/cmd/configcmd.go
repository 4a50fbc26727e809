package cmd

import (
	"fmt"

	"github.com/quantfold/confluence/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().SaveToFile(configOut); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", configOut)
		return nil
	},
}

var configOut string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVarP(&configOut, "out", "o", "config.yaml", "output path")
}
