// Package exec executes compiled statements against database/sql
// connections. A Session wraps either a connection pool or an open
// transaction behind the same interface, translates driver errors into the
// shared taxonomy, and emits lifecycle events for observability.
package exec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/asaidimu/go-jenga/core/dberr"
	"github.com/asaidimu/go-jenga/core/expr"
	"github.com/asaidimu/go-jenga/core/query"
	"github.com/asaidimu/go-jenga/core/types"
)

// Driver binds a dialect, its type registry, and backend error translation
// into one unit. The sqlite, mysql and postgres packages each provide one.
type Driver interface {
	Dialect() expr.Dialect
	Registry() *types.Registry
	// TranslateError maps a backend error into a *dberr.Error. It must
	// return the input unchanged when it does not recognize it.
	TranslateError(err error) error
}

// dbRunner abstracts the shared surface of *sql.DB and *sql.Tx so the same
// execution path serves both transactional and non-transactional sessions.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxOptions configures transaction start. Isolation may only be set on the
// outermost Begin; nested begins turn into savepoints, which cannot change
// isolation.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// Session executes statements against a database. A root session runs on
// the connection pool; Begin returns a child session scoped to a
// transaction, and nested Begin calls stack savepoints where the dialect
// supports them.
type Session struct {
	db     *sql.DB
	tx     *sql.Tx
	driver Driver
	logger *zap.Logger
	hub    *eventHub

	depth int
	stmts int
	done  bool
}

var _ query.Executor = (*Session)(nil)

// NewSession creates a root session over a connection pool. A nil logger
// disables logging.
func NewSession(db *sql.DB, driver Driver, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub, err := newEventHub()
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &Session{
		db:     db,
		driver: driver,
		logger: logger,
		hub:    hub,
	}, nil
}

// Driver returns the driver the session executes through.
func (s *Session) Driver() Driver { return s.driver }

// Dialect returns the session's dialect.
func (s *Session) Dialect() expr.Dialect { return s.driver.Dialect() }

// Registry returns the session's type registry.
func (s *Session) Registry() *types.Registry { return s.driver.Registry() }

// InTransaction reports whether the session is scoped to a transaction.
func (s *Session) InTransaction() bool { return s.tx != nil }

// StatementCount returns the number of statements executed inside this
// transaction scope. Zero for root sessions.
func (s *Session) StatementCount() int { return s.stmts }

// RegisterSubscription registers a callback for an execution event and
// returns an ID for UnregisterSubscription.
func (s *Session) RegisterSubscription(options RegisterSubscriptionOptions) string {
	return s.hub.register(options)
}

// UnregisterSubscription removes a subscription by its ID.
func (s *Session) UnregisterSubscription(id string) {
	s.hub.unregister(id)
}

// Subscriptions returns all active subscriptions.
func (s *Session) Subscriptions() []SubscriptionInfo {
	return s.hub.list()
}

// Close closes the underlying connection pool. It is only valid on a root
// session; transactional sessions end with Commit or Rollback.
func (s *Session) Close() error {
	if s.tx != nil {
		return dberr.New(dberr.KindConstruction, s.dialectName(), "close called on a transactional session")
	}
	return s.db.Close()
}

func (s *Session) runner() dbRunner {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) dialectName() string {
	return s.driver.Dialect().Name()
}

func savepointName(depth int) string {
	return fmt.Sprintf("sp_%d", depth)
}

// Begin starts a transaction. On a root session it opens a real
// transaction; on a transactional session it creates a savepoint where the
// dialect supports them. The returned session must be finished with Commit
// or Rollback.
func (s *Session) Begin(ctx context.Context, opts *TxOptions) (*Session, error) {
	name := s.dialectName()
	if s.done {
		return nil, dberr.New(dberr.KindConstruction, name, "transaction scope already finished")
	}

	if s.tx == nil {
		var sqlOpts *sql.TxOptions
		if opts != nil {
			sqlOpts = &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}
		}
		tx, err := s.db.BeginTx(ctx, sqlOpts)
		if err != nil {
			return nil, s.translate(ctx, err)
		}
		s.logger.Debug("transaction started", zap.String("dialect", name))
		s.hub.emit(ExecEvent{Type: TransactionBegin, Dialect: name, Depth: 1})
		return &Session{
			db:     s.db,
			tx:     tx,
			driver: s.driver,
			logger: s.logger,
			hub:    s.hub,
			depth:  1,
		}, nil
	}

	if opts != nil && opts.Isolation != sql.LevelDefault {
		return nil, dberr.New(dberr.KindConstruction, name,
			"isolation level can only be set on the outermost transaction")
	}
	if !s.driver.Dialect().Capabilities().Savepoints {
		return nil, dberr.New(dberr.KindCapability, name, "savepoints are not supported")
	}

	sp := savepointName(s.depth + 1)
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return nil, s.translate(ctx, err)
	}
	s.logger.Debug("savepoint created", zap.String("dialect", name), zap.String("savepoint", sp))
	s.hub.emit(ExecEvent{Type: TransactionBegin, Dialect: name, Depth: s.depth + 1})
	return &Session{
		db:     s.db,
		tx:     s.tx,
		driver: s.driver,
		logger: s.logger,
		hub:    s.hub,
		depth:  s.depth + 1,
	}, nil
}

// Commit finishes the transaction scope. An outermost scope commits the
// transaction; a nested scope releases its savepoint.
func (s *Session) Commit(ctx context.Context) error {
	name := s.dialectName()
	if s.tx == nil {
		return dberr.New(dberr.KindConstruction, name, "commit outside a transaction")
	}
	if s.done {
		return dberr.New(dberr.KindConstruction, name, "transaction scope already finished")
	}
	s.done = true

	if s.depth > 1 {
		sp := savepointName(s.depth)
		if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return s.translate(ctx, err)
		}
		s.hub.emit(ExecEvent{Type: TransactionCommit, Dialect: name, Depth: s.depth})
		return nil
	}

	if err := s.tx.Commit(); err != nil {
		return s.translate(ctx, err)
	}
	s.logger.Debug("transaction committed", zap.String("dialect", name), zap.Int("statements", s.stmts))
	s.hub.emit(ExecEvent{Type: TransactionCommit, Dialect: name, Depth: s.depth})
	return nil
}

// Rollback abandons the transaction scope. An outermost scope rolls the
// transaction back; a nested scope rolls back to its savepoint and
// releases it, leaving the enclosing transaction usable.
func (s *Session) Rollback(ctx context.Context) error {
	name := s.dialectName()
	if s.tx == nil {
		return dberr.New(dberr.KindConstruction, name, "rollback outside a transaction")
	}
	if s.done {
		return nil
	}
	s.done = true

	if s.depth > 1 {
		sp := savepointName(s.depth)
		if _, err := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); err != nil {
			return s.translate(ctx, err)
		}
		if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return s.translate(ctx, err)
		}
		s.hub.emit(ExecEvent{Type: TransactionAbort, Dialect: name, Depth: s.depth})
		return nil
	}

	if err := s.tx.Rollback(); err != nil {
		return s.translate(ctx, err)
	}
	s.logger.Debug("transaction rolled back", zap.String("dialect", name))
	s.hub.emit(ExecEvent{Type: TransactionAbort, Dialect: name, Depth: s.depth})
	return nil
}

// Transact runs fn inside a transaction. The transaction is rolled back
// when fn returns an error and committed otherwise. Nested calls stack
// savepoints, so a failed inner Transact only unwinds its own work.
func (s *Session) Transact(ctx context.Context, opts *TxOptions, fn func(tx *Session) error) error {
	tx, err := s.Begin(ctx, opts)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit(ctx)
}

// Execute runs a compiled statement. Row-returning statements are
// materialized into QueryResult.Rows with registry decoding applied per
// Options.ColumnTypes; DML reports affected rows and, where the backend
// offers it, the last insert ID.
func (s *Session) Execute(ctx context.Context, stmt *query.Statement, opts *query.Options) (*query.QueryResult, error) {
	name := s.dialectName()
	if stmt == nil {
		return nil, dberr.New(dberr.KindConstruction, name, "nil statement")
	}
	if s.done {
		return nil, dberr.New(dberr.KindConstruction, name, "transaction scope already finished")
	}
	if err := ctx.Err(); err != nil {
		return nil, dberr.Wrap(err, dberr.KindCancelled, name, "execution cancelled before start")
	}
	if stmt.Kind == query.StatementDDL && s.tx != nil && (opts == nil || !opts.TransactionalDDL) {
		return nil, dberr.New(dberr.KindConstruction, name,
			"DDL inside a transaction requires Options.TransactionalDDL")
	}

	s.logger.Debug("executing statement",
		zap.String("dialect", name),
		zap.String("sql", stmt.SQL),
		zap.Any("params", stmt.Params))
	s.hub.emit(ExecEvent{Type: StatementStart, Dialect: name, SQL: stmt.SQL, Params: stmt.Params, Kind: stmt.Kind.String(), Depth: s.depth})

	start := time.Now()
	result, err := s.run(ctx, stmt, opts)
	elapsed := time.Since(start)

	if err != nil {
		err = s.translate(ctx, err)
		s.logger.Error("statement failed",
			zap.String("dialect", name),
			zap.String("sql", stmt.SQL),
			zap.Error(err))
		msg := err.Error()
		s.hub.emit(ExecEvent{Type: StatementFailed, Dialect: name, SQL: stmt.SQL, Kind: stmt.Kind.String(), Depth: s.depth, Error: &msg, Duration: elapsed})
		return nil, err
	}

	if s.tx != nil {
		s.stmts++
	}
	result.Duration = elapsed
	s.hub.emit(ExecEvent{Type: StatementSuccess, Dialect: name, SQL: stmt.SQL, Kind: stmt.Kind.String(), Depth: s.depth, Duration: elapsed, Result: result})
	return result, nil
}

func (s *Session) run(ctx context.Context, stmt *query.Statement, opts *query.Options) (*query.QueryResult, error) {
	if stmt.RowReturning() {
		rows, err := s.runner().QueryContext(ctx, stmt.SQL, stmt.Params...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		materialized, err := s.readRows(rows, opts)
		if err != nil {
			return nil, err
		}
		return &query.QueryResult{Rows: materialized}, nil
	}

	res, err := s.runner().ExecContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, err
	}
	result := &query.QueryResult{}
	if affected, err := res.RowsAffected(); err == nil {
		result.AffectedRows = affected
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		result.LastInsertID = &id
	}
	return result, nil
}

// readRows materializes a result set. Values pass back through the type
// registry when the caller names their logical types; otherwise byte
// slices become strings and everything else is kept as scanned. A MaxRows
// cap stops materialization without draining the cursor, which is what
// bounds runaway recursive queries.
func (s *Session) readRows(rows *sql.Rows, opts *query.Options) ([]query.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	registry := s.driver.Registry()
	var columnTypes map[string]types.LogicalType
	maxRows := int64(0)
	boundCTE := ""
	if opts != nil {
		columnTypes = opts.ColumnTypes
		maxRows = opts.MaxRows
		boundCTE = opts.BoundCTE
	}

	var results []query.Row
	for rows.Next() {
		if maxRows > 0 && int64(len(results)) >= maxRows {
			if boundCTE != "" {
				return nil, dberr.New(dberr.KindConstraint, s.dialectName(),
					"recursive query %q exceeded the %d row bound", boundCTE, maxRows)
			}
			return nil, dberr.New(dberr.KindConstraint, s.dialectName(),
				"result exceeded the %d row bound", maxRows)
		}

		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(query.Row, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			if lt, ok := columnTypes[col]; ok {
				decoded, err := registry.FromDatabase(val, lt)
				if err != nil {
					return nil, err
				}
				val = decoded
			}
			row[col] = val
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// translate routes backend errors through the driver, giving context
// cancellation priority so a cancelled query surfaces as such rather than
// as a connection failure.
func (s *Session) translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return dberr.Wrap(err, dberr.KindCancelled, s.dialectName(), "execution cancelled")
	}
	if translated := s.driver.TranslateError(err); translated != err {
		return translated
	}
	if _, ok := err.(*dberr.Error); ok {
		return err
	}
	return dberr.Wrap(err, dberr.KindConnection, s.dialectName(), "statement execution failed")
}

// Query starts a SELECT assembler over a table, bound to this session.
func (s *Session) Query(table string) *query.ActiveQuery {
	return query.New(table, s.driver.Dialect(), s.driver.Registry()).Bind(s)
}

// Insert starts an INSERT assembler bound to this session.
func (s *Session) Insert(table string) *query.InsertQuery {
	return query.NewInsert(table, s.driver.Dialect(), s.driver.Registry()).Bind(s)
}

// Update starts an UPDATE assembler bound to this session.
func (s *Session) Update(table string) *query.UpdateQuery {
	return query.NewUpdate(table, s.driver.Dialect(), s.driver.Registry()).Bind(s)
}

// Delete starts a DELETE assembler bound to this session.
func (s *Session) Delete(table string) *query.DeleteQuery {
	return query.NewDelete(table, s.driver.Dialect(), s.driver.Registry()).Bind(s)
}

// With starts a CTE assembler bound to this session.
func (s *Session) With() *query.CTEQuery {
	return query.NewCTE(s.driver.Dialect(), s.driver.Registry()).Bind(s)
}
