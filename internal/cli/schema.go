package cli

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/persistence/sqlpersistence"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newSchemaCommand(config func() Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the SQL schema used by the sqlite and postgres drivers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create the SQL schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), config(), sqlpersistence.CreateSchema)
			},
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop the SQL schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), config(), sqlpersistence.DropSchema)
			},
		},
	)

	return cmd
}

func withDB(
	ctx context.Context,
	cfg Config,
	fn func(context.Context, *sql.DB) error,
) (err error) {
	db, err := openSQL(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	return fn(ctx, db)
}
