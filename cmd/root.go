// Package cmd contains the command-line interface logic for dirhunter.
// It uses the Cobra library to wire flags and configuration into the
// discovery engine.
package cmd

import (
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var (
	configDir  string
	outputFile string

	rootCmd = &cobra.Command{
		Use:   "dirhunter",
		Short: "dirhunter discovers hidden HTTP resources by concurrent path probing.",
		Long: `A wordlist-driven discovery scanner that probes a web target for
hidden files and directories, suppresses wildcard noise, recurses into
discovered directories, and mines response bodies for further paths.`,
		Version: Version,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing dirhunter.yaml")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Path for the JSON report (overrides config)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
