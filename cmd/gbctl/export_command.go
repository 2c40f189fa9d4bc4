package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gamebooks/internal/repair"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <book-id|file>",
		Short: "Write a repaired book as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ctx.readDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := encodeBook(data, format)
			if err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

// encodeBook repairs a document and encodes it. YAML goes through the JSON
// form so keys and choice/action type tags match the document.
func encodeBook(data []byte, format string) ([]byte, error) {
	doc, err := json.MarshalIndent(repair.JSON(data), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode book: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return append(doc, '\n'), nil
	case "yaml", "yml":
		var generic any
		if err := json.Unmarshal(doc, &generic); err != nil {
			return nil, fmt.Errorf("encode book: %w", err)
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}
