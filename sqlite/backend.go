package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/exec"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// Backend ties the SQLite dialect and registry together with error
// translation for the mattn/go-sqlite3 driver.
type Backend struct {
	dialect  *Dialect
	registry *types.Registry
}

var _ exec.Driver = (*Backend)(nil)

// NewBackend returns the SQLite backend.
func NewBackend() *Backend {
	return &Backend{
		dialect:  NewDialect(),
		registry: NewRegistry(),
	}
}

func (b *Backend) Dialect() expr.Dialect { return b.dialect }

func (b *Backend) Registry() *types.Registry { return b.registry }

// TranslateError maps go-sqlite3 errors onto the shared taxonomy. Errors
// it does not recognize pass through unchanged.
func (b *Backend) TranslateError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code {
	case sqlite3.ErrConstraint:
		e := dberr.Wrap(err, dberr.KindConstraint, "sqlite", "constraint violated")
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			e = e.WithConstraint("unique")
		case sqlite3.ErrConstraintPrimaryKey:
			e = e.WithConstraint("primary_key")
		case sqlite3.ErrConstraintForeignKey:
			e = e.WithConstraint("foreign_key")
		case sqlite3.ErrConstraintNotNull:
			e = e.WithConstraint("not_null")
		case sqlite3.ErrConstraintCheck:
			e = e.WithConstraint("check")
		}
		return e
	case sqlite3.ErrBusy:
		return dberr.Wrap(err, dberr.KindConcurrency, "sqlite", "database is busy").AsRetryable()
	case sqlite3.ErrLocked:
		return dberr.Wrap(err, dberr.KindConcurrency, "sqlite", "database table is locked")
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrPerm, sqlite3.ErrAuth:
		return dberr.Wrap(err, dberr.KindConnection, "sqlite", "cannot access database")
	case sqlite3.ErrMismatch, sqlite3.ErrRange:
		return dberr.Wrap(err, dberr.KindConversion, "sqlite", "value does not fit the target type")
	default:
		return dberr.Wrap(err, dberr.KindConnection, "sqlite", "sqlite error")
	}
}

// Open opens a SQLite database and returns a root session over it. The dsn
// accepts anything the go-sqlite3 driver accepts, including ":memory:".
// Foreign key enforcement is switched on for the connection.
func Open(dsn string, logger *zap.Logger) (*exec.Session, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %q", dsn)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}
	session, err := exec.NewSession(db, NewBackend(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return session, nil
}
