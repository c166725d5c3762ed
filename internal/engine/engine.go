// ABOUTME: MySQL execution engine for generated SQL
// ABOUTME: Runs statements, captures rows or errors, and introspects schemas
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// ErrNotConnected means no engine connection is open
var ErrNotConnected = errors.New("engine not connected")

// StatementKind classifies a statement by its leading verb
type StatementKind string

const (
	KindSelect  StatementKind = "select"
	KindInsert  StatementKind = "insert"
	KindUpdate  StatementKind = "update"
	KindDelete  StatementKind = "delete"
	KindDDL     StatementKind = "ddl"
	KindShow    StatementKind = "show"
	KindUse     StatementKind = "use"
	KindUnknown StatementKind = "unknown"
)

// Result is the outcome of one statement execution. Success is false
// when the engine returned an error, in which case ErrorText carries
// the exact engine message for the healing loop.
type Result struct {
	Success      bool
	Kind         StatementKind
	Columns      []string
	Rows         [][]string
	AffectedRows int64
	LastInsertID int64
	ErrorText    string
	LatencyMS    int64
}

// Config holds engine connection settings
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Engine wraps a MySQL connection pool with a current-database notion
type Engine struct {
	db       *sql.DB
	dsn      string
	timeout  time.Duration
	database string
}

// Connect opens the engine connection and verifies it with a ping
func Connect(cfg Config) (*Engine, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine connection: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach engine: %w", err)
	}

	return &Engine{db: db, dsn: cfg.DSN, timeout: timeout}, nil
}

// Close closes the connection pool
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Database returns the currently selected database, or "" if none
func (e *Engine) Database() string {
	return e.database
}

// Classify returns the statement kind from the leading SQL verb
func Classify(query string) StatementKind {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return KindUnknown
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return KindSelect
	case "INSERT", "REPLACE":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	case "CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME":
		return KindDDL
	case "SHOW", "DESCRIBE", "DESC", "EXPLAIN":
		return KindShow
	case "USE":
		return KindUse
	default:
		return KindUnknown
	}
}

// returnsRows reports whether the statement kind produces a row set
func returnsRows(kind StatementKind) bool {
	return kind == KindSelect || kind == KindShow
}

// Execute runs one statement and returns a Result. Engine errors are
// captured in the Result, not returned: the healing loop needs the
// error text, and only infrastructure failures (no connection) are
// Go errors.
func (e *Engine) Execute(ctx context.Context, query string) (*Result, error) {
	if e.db == nil {
		return nil, ErrNotConnected
	}

	kind := Classify(query)
	res := &Result{Kind: kind}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if returnsRows(kind) {
		err = e.queryRows(execCtx, query, res)
	} else {
		err = e.exec(execCtx, query, res)
	}
	if err != nil && isConnectionError(err) {
		// One reconnect attempt: reopen the pool, restore the selected
		// database, and rerun the statement.
		if rerr := e.reconnect(ctx); rerr == nil {
			if returnsRows(kind) {
				err = e.queryRows(execCtx, query, res)
			} else {
				err = e.exec(execCtx, query, res)
			}
		}
	}
	res.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		res.Success = false
		res.ErrorText = err.Error()
		return res, nil
	}

	if kind == KindUse {
		e.database = useTarget(query)
	}

	res.Success = true
	return res, nil
}

func (e *Engine) queryRows(ctx context.Context, query string, res *Result) error {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	res.Columns = cols

	raw := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range raw {
		scan[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return err
		}
		row := make([]string, len(cols))
		for i, b := range raw {
			if b == nil {
				row[i] = "NULL"
			} else {
				row[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return rows.Err()
}

func (e *Engine) exec(ctx context.Context, query string, res *Result) error {
	r, err := e.db.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	if n, err := r.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	if id, err := r.LastInsertId(); err == nil {
		res.LastInsertID = id
	}
	return nil
}

// isConnectionError distinguishes dead-connection failures from SQL
// errors. Only the former warrant a reconnect; SQL errors go to the
// healing loop.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid connection") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "bad connection")
}

func (e *Engine) reconnect(ctx context.Context) error {
	db, err := sql.Open("mysql", e.dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return err
	}

	old := e.db
	e.db = db
	if old != nil {
		_ = old.Close()
	}

	if e.database != "" {
		_, err := e.db.ExecContext(pingCtx, "USE `"+strings.Trim(e.database, "`")+"`")
		return err
	}
	return nil
}

// useTarget extracts the database name from a USE statement
func useTarget(query string) string {
	fields := strings.Fields(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";")))
	if len(fields) < 2 {
		return ""
	}
	return strings.Trim(fields[1], "`")
}

// ListDatabases returns the databases visible to the connection
func (e *Engine) ListDatabases(ctx context.Context) ([]string, error) {
	if e.db == nil {
		return nil, ErrNotConnected
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(execCtx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UseDatabase switches the engine to the given database
func (e *Engine) UseDatabase(ctx context.Context, name string) error {
	if e.db == nil {
		return ErrNotConnected
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if _, err := e.db.ExecContext(execCtx, "USE `"+strings.Trim(name, "`")+"`"); err != nil {
		return fmt.Errorf("failed to use database %q: %w", name, err)
	}
	e.database = name
	return nil
}

// DescribeSchema returns a formatted snapshot of every table in the
// current database: table names, columns with types, keys, and row
// estimates. The output feeds the generation prompt directly.
func (e *Engine) DescribeSchema(ctx context.Context) (string, error) {
	if e.db == nil {
		return "", ErrNotConnected
	}
	if e.database == "" {
		return "", fmt.Errorf("no database selected")
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tables, err := e.listTables(execCtx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", e.database)
	for _, table := range tables {
		if err := e.describeTable(execCtx, table, &b); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (e *Engine) listTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (e *Engine) describeTable(ctx context.Context, table string, b *strings.Builder) error {
	rows, err := e.db.QueryContext(ctx, "SHOW COLUMNS FROM `"+strings.Trim(table, "`")+"`")
	if err != nil {
		return fmt.Errorf("failed to describe table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	fmt.Fprintf(b, "\nTable: %s\n", table)
	for rows.Next() {
		var (
			field, colType, null, key string
			def                       sql.NullString
			extra                     string
		)
		if err := rows.Scan(&field, &colType, &null, &key, &def, &extra); err != nil {
			return err
		}
		fmt.Fprintf(b, "  %s %s", field, colType)
		if key == "PRI" {
			b.WriteString(" PRIMARY KEY")
		} else if key == "MUL" {
			b.WriteString(" INDEXED")
		}
		if null == "NO" {
			b.WriteString(" NOT NULL")
		}
		b.WriteString("\n")
	}
	return rows.Err()
}
