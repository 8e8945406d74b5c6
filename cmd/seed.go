/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/emodiary/apiserver/internal/app"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo and admin accounts",
	Long: `Creates patient@demo.com, therapist@demo.com and admin@admin.com when they
do not exist yet and links the demo therapist to the demo patient. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := app.Seed(cmd.Context(), application.Services)
		if err != nil {
			return err
		}
		for _, email := range report.Created {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", email)
		}
		for _, email := range report.Existing {
			fmt.Fprintf(cmd.OutOrStdout(), "exists  %s\n", email)
		}
		if report.LinkedDemo {
			fmt.Fprintln(cmd.OutOrStdout(), "linked demo therapist to demo patient")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
