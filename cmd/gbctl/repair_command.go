package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gamebooks/internal/repair"
)

func newRepairCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "repair <file>",
		Short: "Upgrade a book document to the current format",
		Long: "Reads a book document in any historical format and prints the repaired\n" +
			"document. With --write the file is replaced instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			book := repair.JSON(data)
			doc, err := json.MarshalIndent(book, "", "  ")
			if err != nil {
				return fmt.Errorf("encode %s: %w", path, err)
			}

			if !write {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(doc))
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, append(doc, '\n'), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Repaired %s: %d nodes, %d edges, %d events\n",
				path, len(book.Nodes), len(book.Edges), len(book.Events))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	return cmd
}
