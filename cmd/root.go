// Package cmd defines the command line interface of the bridge binary.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk-bridge",
	Short: "Telegram to Zammad helpdesk bridge",
	RunE:  runServe,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupBotsCmd)
}

// loadDotenv applies .env overrides before the config is read. Missing
// files are fine.
func loadDotenv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
}
