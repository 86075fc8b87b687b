package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/internal/utils"
)

func newProjectsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse saved projects",
	}
	cmd.AddCommand(newProjectsListCmd(c), newProjectsGetCmd(c), newProjectsDeleteCmd(c))
	return cmd
}

func newProjectsListCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			out := c.ui()

			ps, err := a.svc.ListProjects(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return out.JSON(ps)
			}
			if len(ps) == 0 {
				out.Info("no projects saved yet")
				return nil
			}

			tw := tabwriter.NewWriter(out.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ID\tCreated\tItems\tTotal\t")
			for _, p := range ps {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t\n", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"), len(p.BudgetItems), utils.FormatBaht(p.Total()))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out.out)
			for _, p := range ps {
				fmt.Fprintf(out.out, "%4d  %s  (%s)\n", p.ID, p.ProjectName, p.ResponsiblePerson)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newProjectsGetCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project with its budget items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			out := c.ui()

			p, err := a.svc.GetProject(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return out.JSON(p)
			}
			out.Info("project %d, saved %s", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			out.Record(p.Record())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newProjectsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its budget items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.DeleteProject(ctx, id); err != nil {
				return err
			}
			c.ui().Success("deleted project %d", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

