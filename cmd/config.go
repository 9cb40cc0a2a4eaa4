package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		// Never echo credentials.
		if shown.Generation.Key != "" {
			shown.Generation.Key = "<set>"
		}
		if shown.Platform.Token != "" {
			shown.Platform.Token = "<set>"
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(shown)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
