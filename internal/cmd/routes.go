package cmd

import (
	"fmt"
	"os"

	"github.com/niels/mock-api-server/pkg/editor"
	"github.com/niels/mock-api-server/pkg/logging"
	"github.com/niels/mock-api-server/pkg/output"
	"github.com/niels/mock-api-server/pkg/routes"
	"github.com/niels/mock-api-server/pkg/server"
	"github.com/spf13/cobra"
)

func newRoutesCmd() *cobra.Command {
	var format string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "routes <file>",
		Short: "Print the routes a JSON document would serve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.NewFormatter(format, useColor && outputPath == "")
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			data, err = editor.DecodeDocument(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			entries, err := routes.Build(data)
			if err != nil {
				logging.WarnWith("Rejected document", map[string]interface{}{
					"file":  args[0],
					"error": err.Error(),
				})
				return fmt.Errorf("%s: %w", args[0], err)
			}

			base := (&server.Instance{Addr: cfg.Server.Addr()}).URL()
			doc := editor.Document{Path: args[0]}
			rendered := formatter.FormatRoutes(doc.Name(), base, entries)

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
					return fmt.Errorf("failed to write to file: %w", err)
				}
				logging.InfoWith("Route table written", map[string]interface{}{
					"path": outputPath,
				})
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", output.FormatTerminal, "Output format: terminal, markdown or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the route table to a file instead of stdout")

	return cmd
}
