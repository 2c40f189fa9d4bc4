package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gamebooks/internal/domain"
	"gamebooks/internal/workspace"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "List, add and remove books",
	}
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryAddCommand(ctx))
	libraryCmd.AddCommand(newLibraryRemoveCommand(ctx))
	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the books in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(cmd.Context(), func(ws *workspace.Workspace) error {
				books := ws.Library.Books()
				if asJSON {
					return writeJSON(cmd, books)
				}
				out := cmd.OutOrStdout()
				if len(books) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(books))
				for _, b := range books {
					rows = append(rows, []string{b.ID, b.Name, b.Description})
				}
				writeRows(out, []string{"ID", "Name", "Description"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the library as JSON")
	return cmd
}

func newLibraryAddCommand(ctx *commandContext) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an empty book",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return ctx.withWorkspace(cmd.Context(), func(ws *workspace.Workspace) error {
				entry, err := ws.Library.AddBook(cmd.Context(), domain.BookFields{Name: name, Description: description})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", entry.Name, entry.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Book description")
	return cmd
}

func newLibraryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Delete a book, its assets and its revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withWorkspace(cmd.Context(), func(ws *workspace.Workspace) error {
				entry, ok := ws.Library.Book(id)
				if !ok {
					return fmt.Errorf("book %s not found", id)
				}
				if err := ws.Library.RemoveBook(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q (%s)\n", entry.Name, id)
				return nil
			})
		},
	}
}
