/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"

	"github.com/emodiary/apiserver/config"
	"github.com/emodiary/apiserver/internal/app"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apiserver",
	Short: "Emotional diary backend",
	Long: `Backend for the emotional diary: the HTTP API, database migrations,
reminder scheduling and the mail worker.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration from the environment and wires the application.
func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.LoadConfig()
	return app.New(ctx, cfg, app.NewLogger(os.Stderr))
}
