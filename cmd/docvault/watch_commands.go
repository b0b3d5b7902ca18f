package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docvault/internal/ipc"
)

func newWatchCommands(ctx *commandContext) []*cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Watch a recorded document and archive it once it is closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveArgPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Watch(path)
				if err != nil {
					return err
				}
				if resp.Changed {
					fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Already watching %s\n", path)
				}
				return nil
			})
		},
	}

	unwatchCmd := &cobra.Command{
		Use:   "unwatch <path>",
		Short: "Stop watching a document without archiving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveArgPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Unwatch(path)
				if err != nil {
					return err
				}
				if resp.Changed {
					fmt.Fprintf(cmd.OutOrStdout(), "Stopped watching %s\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not being watched\n", path)
				}
				return nil
			})
		},
	}

	watchingCmd := &cobra.Command{
		Use:   "watching",
		Short: "List watched documents and their lock state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Watching()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Entries)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "Nothing is being watched")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"Path", "State", "Since", "Attempts", "Last error"},
					watchRows(resp.Entries, colorEnabled(out)),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	return []*cobra.Command{watchCmd, unwatchCmd, watchingCmd}
}

func watchRows(entries []ipc.WatchEntry, colorize bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Path,
			paint(watchStateCell(e), watchTone(e), colorize),
			shortTime(e.RegisteredAt),
			strconv.Itoa(e.Attempts),
			orDash(e.LastError),
		})
	}
	return rows
}
