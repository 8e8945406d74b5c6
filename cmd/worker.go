/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume mail jobs and deliver them over SMTP",
	Long: `Consumes the mail channel of the configured broker. Requires
MQ_BACKEND=rabbitmq or MQ_BACKEND=pubsub; the memory backend is only
reachable from inside the server process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		if application.InProcessMail() {
			return errors.New("worker needs a shared broker; set MQ_BACKEND to rabbitmq or pubsub")
		}

		worker, err := application.MailWorker()
		if err != nil {
			return err
		}
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
