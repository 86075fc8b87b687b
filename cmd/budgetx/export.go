package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(c *cli) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all saved projects to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.svc.ExportXLSX(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, b, 0o644); err != nil {
				return err
			}
			c.ui().Success("wrote %s (%d bytes)", outPath, len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "budgets.xlsx", "output file")
	return cmd
}
