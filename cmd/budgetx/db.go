package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/internal/repository"
)

func newDBCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				db, err := repository.Open(ctx, dbConfig(c), c.logger)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := repository.Migrate(ctx, db); err != nil {
					return err
				}
				c.ui().Success("schema is up to date (%s)", db.Dialect())
				return nil
			},
		},
		&cobra.Command{
			Use:   "ping",
			Short: "Check database connectivity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				db, err := repository.Open(ctx, dbConfig(c), c.logger)
				if err != nil {
					return err
				}
				defer db.Close()
				start := time.Now()
				if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
					return err
				}
				c.ui().Success("%s is reachable (%s)", db.Dialect(), time.Since(start).Round(time.Millisecond))
				return nil
			},
		},
	)
	return cmd
}
