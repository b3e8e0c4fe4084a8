package mysql

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/exec"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/query"
	"github.com/asaidimu/go-jenga/core/types"
)

// Backend ties the MySQL dialect and registry together with error
// translation for the go-sql-driver/mysql driver.
type Backend struct {
	dialect  *Dialect
	registry *types.Registry
}

var _ exec.Driver = (*Backend)(nil)

// NewBackend returns the MySQL backend.
func NewBackend() *Backend {
	return &Backend{
		dialect:  NewDialect(),
		registry: NewRegistry(),
	}
}

func (b *Backend) Dialect() expr.Dialect { return b.dialect }

func (b *Backend) Registry() *types.Registry { return b.registry }

// MySQL server error numbers, from the server error reference.
const (
	errDupEntry         = 1062
	errNoReferencedRow  = 1216
	errRowIsReferenced  = 1217
	errRowIsReferenced2 = 1451
	errNoReferencedRow2 = 1452
	errBadNull          = 1048
	errCheckViolated    = 3819
	errLockDeadlock     = 1213
	errLockWaitTimeout  = 1205
	errTruncatedWrong   = 1366
	errDataOutOfRange   = 1264
	errAccessDenied     = 1045
	errTooManyConns     = 1040
	errCTEMaxRecursion  = 3636
)

// TranslateError maps MySQL server errors onto the shared taxonomy.
// Errors it does not recognize pass through unchanged.
func (b *Backend) TranslateError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}

	switch me.Number {
	case errDupEntry:
		return dberr.Wrap(err, dberr.KindConstraint, "mysql", "duplicate key").WithConstraint("unique")
	case errNoReferencedRow, errRowIsReferenced, errRowIsReferenced2, errNoReferencedRow2:
		return dberr.Wrap(err, dberr.KindConstraint, "mysql", "foreign key violated").WithConstraint("foreign_key")
	case errBadNull:
		return dberr.Wrap(err, dberr.KindConstraint, "mysql", "column cannot be null").WithConstraint("not_null")
	case errCheckViolated:
		return dberr.Wrap(err, dberr.KindConstraint, "mysql", "check constraint violated").WithConstraint("check")
	case errCTEMaxRecursion:
		return dberr.Wrap(err, dberr.KindConstraint, "mysql", "recursive query exceeded the recursion bound")
	case errLockDeadlock:
		return dberr.Wrap(err, dberr.KindConcurrency, "mysql", "deadlock detected").AsRetryable()
	case errLockWaitTimeout:
		return dberr.Wrap(err, dberr.KindConcurrency, "mysql", "lock wait timeout")
	case errTruncatedWrong, errDataOutOfRange:
		return dberr.Wrap(err, dberr.KindConversion, "mysql", "value does not fit the target type")
	case errAccessDenied, errTooManyConns:
		return dberr.Wrap(err, dberr.KindConnection, "mysql", "cannot access database")
	default:
		return dberr.Wrap(err, dberr.KindConnection, "mysql", "mysql error %d", me.Number)
	}
}

// Open connects to MySQL and returns a root session. The connection's CTE
// recursion depth is aligned with the row bound the assemblers enforce, so
// an unbounded recursive query fails server-side as well.
func Open(dsn string, logger *zap.Logger) (*exec.Session, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, errors.Wrap(err, "invalid mysql dsn")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql connection")
	}
	if _, err := db.Exec(fmt.Sprintf("SET SESSION cte_max_recursion_depth = %d", query.DefaultRecursionBound)); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set cte recursion depth")
	}
	session, err := exec.NewSession(db, NewBackend(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return session, nil
}
