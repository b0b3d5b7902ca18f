package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"docvault/internal/ipc"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change archive settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective archive settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Settings()
				if err != nil {
					return err
				}
				return printSettings(cmd, ctx, resp.Settings)
			})
		},
	}

	var (
		archiveRoot    string
		namingTemplate string
		delay          int
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change archive settings; takes effect on the next sweep",
		Example: `  docvault settings set --delay 30
  docvault settings set --archive-root ~/Archive --template "{date}-{title}"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req ipc.SaveSettingsRequest
			flags := cmd.Flags()
			if flags.Changed("archive-root") {
				root, err := resolveArgPath(archiveRoot)
				if err != nil {
					return err
				}
				req.ArchiveRoot = &root
			}
			if flags.Changed("template") {
				req.NamingTemplate = &namingTemplate
			}
			if flags.Changed("delay") {
				req.AutoArchiveDelaySeconds = &delay
			}
			if req.ArchiveRoot == nil && req.NamingTemplate == nil && req.AutoArchiveDelaySeconds == nil {
				return errors.New("nothing to change; pass --archive-root, --template, or --delay")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SaveSettings(req)
				if err != nil {
					return err
				}
				return printSettings(cmd, ctx, resp.Settings)
			})
		},
	}
	setCmd.Flags().StringVar(&archiveRoot, "archive-root", "", "Directory archived documents are moved under")
	setCmd.Flags().StringVar(&namingTemplate, "template", "", "Filename template using {date}, {time}, {title}, {extension}")
	setCmd.Flags().IntVar(&delay, "delay", 0, "Seconds a document must stay closed before it is archived")

	settingsCmd.AddCommand(showCmd, setCmd)
	return settingsCmd
}

func printSettings(cmd *cobra.Command, ctx *commandContext, s ipc.Settings) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, s)
	}
	writeSettings(cmd.OutOrStdout(), s)
	return nil
}

func writeSettings(out io.Writer, s ipc.Settings) {
	fmt.Fprintf(out, "archive_root:               %s\n", s.ArchiveRoot)
	fmt.Fprintf(out, "naming_template:            %s\n", s.NamingTemplate)
	fmt.Fprintf(out, "auto_archive_delay_seconds: %d\n", s.AutoArchiveDelaySeconds)
}
