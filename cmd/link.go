/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	linkTherapistID int
	linkPatientID   int
	linkRemove      bool
)

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Assign a patient to a therapist",
	Long: `Assigns a patient to a therapist. Usage:

	apiserver link --therapist 2 --patient 1

Pass --remove to revoke the therapist's access instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if linkTherapistID < 1 || linkPatientID < 1 {
			return errors.New("--therapist and --patient are required")
		}

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if linkRemove {
			if err := application.Services.Links.Unlink(cmd.Context(), linkTherapistID, linkPatientID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unlinked therapist %d from patient %d\n", linkTherapistID, linkPatientID)
			return nil
		}

		_, created, err := application.Services.Links.Link(cmd.Context(), linkTherapistID, linkPatientID)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "linked therapist %d to patient %d\n", linkTherapistID, linkPatientID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "therapist %d already linked to patient %d\n", linkTherapistID, linkPatientID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().IntVar(&linkTherapistID, "therapist", 0, "therapist user id")
	linkCmd.Flags().IntVar(&linkPatientID, "patient", 0, "patient user id")
	linkCmd.Flags().BoolVar(&linkRemove, "remove", false, "remove the link instead of creating it")
}
