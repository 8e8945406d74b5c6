/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var remindersAt string

// remindersCmd represents the reminders command
var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Daily entry reminders",
}

var remindersSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Remind users due this minute who have not written today",
	Long: `Runs one reminder pass. Schedule it once a minute, for example from cron.
Mail jobs are published to the configured broker; with MQ_BACKEND=memory the
command delivers them itself before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at := time.Now()
		if remindersAt != "" {
			parsed, err := time.Parse(time.RFC3339, remindersAt)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
			at = parsed
		}

		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.Services.Notifications.SendReminders(cmd.Context(), at)
		fmt.Fprintf(cmd.OutOrStdout(), "minute=%s due=%d notified=%d emailed=%d skipped=%d failed=%d\n",
			report.Minute, report.Due, report.Notified, report.Emailed, report.Skipped, report.Failed)

		if application.InProcessMail() {
			worker, werr := application.MailWorker()
			if werr != nil {
				return errors.Join(err, werr)
			}
			if _, werr := worker.Drain(cmd.Context()); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(remindersCmd)
	remindersCmd.AddCommand(remindersSendCmd)

	remindersSendCmd.Flags().StringVar(&remindersAt, "at", "", "evaluate reminders at this RFC 3339 instant instead of now")
}
