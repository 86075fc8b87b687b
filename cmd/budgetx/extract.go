package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/internal/budget"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
)

func newExtractCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Extract the project record from one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			out := c.ui()

			sp := out.Spinner(fmt.Sprintf("extracting %s", filepath.Base(path)))
			if !asJSON {
				sp.Start()
			}
			res, err := a.svc.Extract(ctx, filepath.Base(path), data, "")
			sp.Stop()
			if err != nil {
				return err
			}

			var projectID int64
			if save && res.Valid() {
				if projectID, _, err = a.svc.Save(ctx, res.Record); err != nil {
					return err
				}
			}

			if asJSON {
				if res.ValidationErrors == nil {
					res.ValidationErrors = []string{}
				}
				return out.JSON(struct {
					entity.ExtractionResult
					ProjectID int64 `json:"project_id,omitempty"`
				}{res, projectID})
			}

			out.Info("%s: %d page(s), backend %s", res.Filename, res.Pages, res.Backend)
			out.Record(res.Record)
			fmt.Fprintln(out.out)
			if res.Valid() {
				out.Success("record is valid")
			} else {
				out.Violations(res.ValidationErrors)
			}
			switch {
			case projectID > 0:
				out.Success("%s (project %d)", budget.SavedMessage, projectID)
			case save:
				out.Error("not saved: fix the issues above first")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "save the record when it is valid")
	return cmd
}
