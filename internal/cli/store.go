package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/internal/metrics"
	"github.com/dogmatiq/procstore/internal/x/loggingx"
	"github.com/dogmatiq/procstore/model/bpmn"
	"github.com/dogmatiq/procstore/persistence"
	"github.com/dogmatiq/procstore/persistence/boltpersistence"
	"github.com/dogmatiq/procstore/persistence/sqlpersistence"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	lj "gopkg.in/natefinch/lumberjack.v2"

	// SQL drivers used by DSN.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlDriverName returns the database/sql driver name for a Config.Driver value.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case SQLiteDriver:
		return "sqlite", nil
	case PostgresDriver:
		return "pgx", nil
	default:
		return "", fmt.Errorf("the %s driver does not use an SQL database", driver)
	}
}

// newProvider returns the persistence provider described by cfg.
func newProvider(cfg Config) (persistence.Provider, error) {
	if cfg.Driver == BoltDriver {
		return &boltpersistence.FileProvider{Path: cfg.Path}, nil
	}

	name, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	return &sqlpersistence.DSNProvider{
		DriverName: name,
		DSN:        cfg.DSN,
	}, nil
}

// openSQL opens the SQL database described by cfg.
func openSQL(cfg Config) (*sql.DB, error) {
	name, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	return sql.Open(name, cfg.DSN)
}

// newLogger returns the logger described by cfg. Messages are prefixed with
// the store name.
//
// The returned function must be called once the logger is no longer in use.
func newLogger(cfg Config, stderr io.Writer) (logging.Logger, func() error) {
	w := stderr
	closeLog := func() error { return nil }

	if cfg.LogFile != "" {
		f := &lj.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		w, closeLog = f, f.Close
	}

	std := &logging.StandardLogger{
		Target:       log.New(w, "", log.LstdFlags),
		CaptureDebug: cfg.Debug,
	}

	return loggingx.WithPrefix(std, "%s | ", cfg.Store), closeLog
}

// session is the state shared by a single invocation of a command.
type session struct {
	cfg      Config
	logger   logging.Logger
	registry *prometheus.Registry
}

// newSession returns a session for cfg.
//
// The returned function must be called once the session is no longer in use.
func newSession(cfg Config, stderr io.Writer) (*session, func() error, error) {
	logger, closeLog := newLogger(cfg, stderr)

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		closeLog()
		return nil, nil, err
	}

	return &session{cfg, logger, reg}, closeLog, nil
}

// run opens the data store and calls fn within a transaction.
func (s *session) run(
	ctx context.Context,
	fn func(*deployment.State, persistence.ManagedTransaction) error,
) (err error) {
	p, err := newProvider(s.cfg)
	if err != nil {
		return err
	}

	ds, err := p.Open(ctx, s.cfg.Store)
	if err != nil {
		return fmt.Errorf("unable to open the '%s' data store: %w", s.cfg.Store, err)
	}
	defer func() {
		err = multierr.Append(err, ds.Close())
	}()

	state := deployment.NewState(
		bpmn.Transformer,
		deployment.WithCacheCapacity(s.cfg.CacheCapacity),
		deployment.WithLogger(s.logger),
	)

	err = state.Transaction(
		ctx,
		ds,
		func(tx persistence.ManagedTransaction) error {
			return fn(state, tx)
		},
	)
	if err != nil {
		return err
	}

	if s.cfg.MetricsFile != "" {
		return prometheus.WriteToTextfile(s.cfg.MetricsFile, s.registry)
	}

	return nil
}
