package sqlpersistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dogmatiq/procstore/persistence/sqlpersistence/postgres"
	"github.com/dogmatiq/procstore/persistence/sqlpersistence/sqlite"
	"go.uber.org/multierr"
)

// drivers is the list of built-in drivers, in order of preference.
var drivers = []Driver{
	postgres.Driver,
	sqlite.Driver,
}

// CreateSchema creates the tables that hold process definitions, version
// ledgers and digests. Tables that already exist are left as they are.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	return withDriver(ctx, db, Driver.CreateSchema)
}

// DropSchema drops the tables created by CreateSchema(). Tables that do not
// exist are ignored.
func DropSchema(ctx context.Context, db *sql.DB) error {
	return withDriver(ctx, db, Driver.DropSchema)
}

func withDriver(
	ctx context.Context,
	db *sql.DB,
	fn func(Driver, context.Context, *sql.DB) error,
) error {
	d, err := selectDriver(ctx, db)
	if err != nil {
		return err
	}

	return fn(d, ctx, db)
}

// selectDriver returns the first built-in driver that is compatible with db.
func selectDriver(ctx context.Context, db *sql.DB) (Driver, error) {
	var causes error

	for _, d := range drivers {
		err := d.IsCompatibleWith(ctx, db)
		if err == nil {
			return d, nil
		}

		causes = multierr.Append(causes, fmt.Errorf("%T: %w", d, err))
	}

	return nil, fmt.Errorf(
		"none of the built-in drivers are compatible with %T: %w",
		db.Driver(),
		causes,
	)
}
