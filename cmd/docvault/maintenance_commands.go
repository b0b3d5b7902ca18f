package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docvault/internal/ipc"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Retry record updates for documents archived while the database was unavailable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reconcile()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Replayed %d, dropped %d, %d still pending\n", resp.Replayed, resp.Dropped, resp.Remaining)
				if resp.Malformed > 0 {
					fmt.Fprintf(out, "Skipped %d unreadable journal lines\n", resp.Malformed)
				}
				return nil
			})
		},
	}
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "db-health",
		Short: "Check the records database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				colorize := colorEnabled(out)
				integrity := toneGood
				if !health.IntegrityCheck {
					integrity = toneProblem
				}
				fmt.Fprintln(out, statusLine("Database", toneNeutral, health.DBPath, colorize))
				fmt.Fprintln(out, statusLine("Exists", toneNeutral, yesNo(health.DatabaseExists), colorize))
				fmt.Fprintln(out, statusLine("Integrity", integrity, yesNo(health.IntegrityCheck), colorize))
				fmt.Fprintln(out, statusLine("Documents", toneNeutral, fmt.Sprint(health.TotalFiles), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, statusLine("Error", toneProblem, health.Error, colorize))
				}
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
