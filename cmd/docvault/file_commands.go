package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docvault/internal/ipc"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var date string
	var tags []string
	cmd := &cobra.Command{
		Use:   "new <extension> <title...>",
		Short: "Create a document and watch it until it is archived",
		Example: `  docvault new docx Quarterly report
  docvault new md "Meeting notes" --tag work --date 2024-03-15`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.CreateFileRequest{
				Extension: args[0],
				Title:     strings.Join(args[1:], " "),
				Date:      strings.TrimSpace(date),
				Tags:      tags,
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CreateFile(req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.File)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (id %d)\n", resp.File.Path, resp.File.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Document date as YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag to attach (repeatable)")
	return cmd
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var filter ipc.ListFilesRequest
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ListFiles(filter)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Files)
				}
				out := cmd.OutOrStdout()
				if len(resp.Files) == 0 {
					fmt.Fprintln(out, "No documents match")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Title", "Ext", "Status", "Created", "Location", "Tags"},
					fileRows(resp.Files),
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Match a substring of the title or filename")
	cmd.Flags().StringVar(&filter.Extension, "ext", "", "Only this extension")
	cmd.Flags().StringVar(&filter.Date, "date", "", "Created on YYYY, YYYY-MM, or YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "Only documents with this tag")
	cmd.Flags().StringVar(&filter.Status, "status", "", "active, archived, or deleted")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 0, "Maximum number of rows")
	return cmd
}

func fileRows(files []ipc.File) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		status := f.Status
		if f.ArchiveError != "" {
			status += " (failed)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.Title,
			f.Extension,
			status,
			shortTime(f.CreatedAt),
			f.Path,
			orDash(strings.Join(f.Tags, ", ")),
		})
	}
	return rows
}

func newTagsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags by usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Tags()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Tags)
				}
				out := cmd.OutOrStdout()
				if len(resp.Tags) == 0 {
					fmt.Fprintln(out, "No tags yet")
					return nil
				}
				rows := make([][]string, 0, len(resp.Tags))
				for _, tag := range resp.Tags {
					rows = append(rows, []string{tag.Name, strconv.Itoa(tag.UsageCount)})
				}
				fmt.Fprint(out, renderTable([]string{"Tag", "Documents"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
