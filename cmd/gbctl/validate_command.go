package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"gamebooks/internal/repair"
	"gamebooks/internal/validate"
	"gamebooks/internal/workspace"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <book-id|file>",
		Short: "Check a book for broken links, missing start and unreachable nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ctx.readDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report := validate.Run(repair.JSON(data))
			if asJSON {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			if report.HasErrors() {
				return fmt.Errorf("validation found errors")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// readDocument returns the document at ref when it is a file, and otherwise
// the stored document of the book with id ref.
func (c *commandContext) readDocument(ctx context.Context, ref string) ([]byte, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return os.ReadFile(ref)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var data []byte
	err := c.withWorkspace(ctx, func(ws *workspace.Workspace) error {
		if _, ok := ws.Library.Book(ref); !ok {
			return fmt.Errorf("%s is neither a file nor a book id", ref)
		}
		var err error
		data, err = ws.Host.LoadBookDocument(ctx, ref)
		return err
	})
	return data, err
}

func printReport(out io.Writer, report validate.Report) {
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return
	}
	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.NodeID
		if issue.EdgeID != "" {
			location = "edge " + issue.EdgeID
		}
		if location == "" {
			location = "book"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
