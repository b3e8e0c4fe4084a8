package postgres

import (
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/exec"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/types"
)

// Backend ties the PostgreSQL dialect and registry together with error
// translation for pgx.
type Backend struct {
	dialect  *Dialect
	registry *types.Registry
}

var _ exec.Driver = (*Backend)(nil)

// NewBackend returns the PostgreSQL backend.
func NewBackend() *Backend {
	return &Backend{
		dialect:  NewDialect(),
		registry: NewRegistry(),
	}
}

func (b *Backend) Dialect() expr.Dialect { return b.dialect }

func (b *Backend) Registry() *types.Registry { return b.registry }

// TranslateError maps PostgreSQL SQLSTATE codes onto the shared taxonomy.
// Errors it does not recognize pass through unchanged.
func (b *Backend) TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	code := pgErr.Code
	switch {
	case code == "23505":
		return constraintErr(err, pgErr, "unique")
	case code == "23503":
		return constraintErr(err, pgErr, "foreign_key")
	case code == "23502":
		return constraintErr(err, pgErr, "not_null")
	case code == "23514":
		return constraintErr(err, pgErr, "check")
	case strings.HasPrefix(code, "23"):
		return constraintErr(err, pgErr, "")
	case code == "40001" || code == "40P01":
		return dberr.Wrap(err, dberr.KindConcurrency, "postgres", "serialization failure").AsRetryable()
	case code == "55P03":
		return dberr.Wrap(err, dberr.KindConcurrency, "postgres", "row lock not available")
	case strings.HasPrefix(code, "22"):
		return dberr.Wrap(err, dberr.KindConversion, "postgres", "value does not fit the target type")
	case strings.HasPrefix(code, "08") || strings.HasPrefix(code, "28") || code == "53300":
		return dberr.Wrap(err, dberr.KindConnection, "postgres", "cannot access database")
	default:
		return dberr.Wrap(err, dberr.KindConnection, "postgres", "postgres error %s", code)
	}
}

func constraintErr(err error, pgErr *pgconn.PgError, kind string) error {
	e := dberr.Wrap(err, dberr.KindConstraint, "postgres", "constraint violated")
	switch {
	case pgErr.ConstraintName != "":
		e = e.WithConstraint(pgErr.ConstraintName)
	case kind != "":
		e = e.WithConstraint(kind)
	}
	return e
}

// Open connects to PostgreSQL through the pgx stdlib adapter and returns a
// root session. The dsn is a keyword/value or URL connection string.
func Open(dsn string, logger *zap.Logger) (*exec.Session, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	session, err := exec.NewSession(db, NewBackend(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return session, nil
}
