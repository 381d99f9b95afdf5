package iostore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/driftwatch/driftwatch/internal/contract"
	"github.com/driftwatch/driftwatch/schema"
	_ "github.com/go-sql-driver/mysql"    // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"    // PostgreSQL driver
	_ "modernc.org/sqlite"                // SQLite driver
)

// DefaultSQLitePath is where the SQLite backend stores data when no
// connection string is given.
const DefaultSQLitePath = "driftwatch.db"

// openDB opens a database handle for the given backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = DefaultSQLitePath
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=secret dbname=postgres
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported database backend: %s. Must be sqlite, mysql or postgresql", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// quoteIdent quotes one identifier for the given backend.
func quoteIdent(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// placeholder renders the n-th (1-based) bind parameter for the backend.
func placeholder(n int, backend schema.DatabaseBackend) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLReader loads a dataset from an arbitrary query against the configured
// backend. Column types follow the driver's scan types.
type SQLReader struct {
	Backend schema.DatabaseBackend
	ConnStr string
	Query   string
	Stages  schema.Stages
}

var _ contract.Reader = (*SQLReader)(nil)

// Load implements contract.Reader.
func (r *SQLReader) Load(ctx context.Context) (schema.Dataset, error) {
	db, err := openDB(r.Backend, r.ConnStr)
	if err != nil {
		return schema.Dataset{}, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, r.Query)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("query %s backend: %w", r.Backend, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return schema.Dataset{}, err
	}
	ds, err := schema.NewDataset(columns...)
	if err != nil {
		return schema.Dataset{}, err
	}

	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return schema.Dataset{}, fmt.Errorf("scan row: %w", err)
		}
		values := make([]schema.Value, len(raw))
		for i, v := range raw {
			values[i] = fromSQL(v)
		}
		if err := ds.AppendRow(values...); err != nil {
			return schema.Dataset{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return schema.Dataset{}, err
	}
	return r.Stages.Run(schema.StageAfter, ds)
}

// fromSQL converts one driver value to a dataset value.
func fromSQL(v any) schema.Value {
	switch x := v.(type) {
	case nil:
		return schema.Null()
	case int64:
		return schema.Number(float64(x))
	case float64:
		return schema.Number(x)
	case bool:
		if x {
			return schema.Number(1)
		}
		return schema.Number(0)
	case time.Time:
		return schema.Date(x)
	case []byte:
		return schema.Text(string(x))
	case string:
		return schema.Text(x)
	default:
		return schema.Text(fmt.Sprint(x))
	}
}

// SQLWriter persists a dataset into a table on the configured backend,
// creating the table from the dataset's shape when it does not exist.
// Dates and text map to TEXT columns, numbers to DOUBLE PRECISION.
type SQLWriter struct {
	Backend schema.DatabaseBackend
	ConnStr string
	Table   string
	Stages  schema.Stages
}

var _ contract.Writer = (*SQLWriter)(nil)

// Write implements contract.Writer.
func (w *SQLWriter) Write(ctx context.Context, ds schema.Dataset) error {
	if err := validateTableName(w.Table); err != nil {
		return err
	}
	ds, err := w.Stages.Run(schema.StageBefore, ds)
	if err != nil {
		return err
	}

	db, err := openDB(w.Backend, w.ConnStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, w.createTableQuery(ds)); err != nil {
		return fmt.Errorf("create table %s: %w", w.Table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := w.insertQuery(ds)
	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = toSQL(v)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert row %d into %s: %w", r, w.Table, err)
		}
	}
	return tx.Commit()
}

func (w *SQLWriter) createTableQuery(ds schema.Dataset) string {
	cols := ds.Columns()
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = quoteIdent(col, w.Backend) + " " + w.columnType(ds, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(w.Table, w.Backend), strings.Join(defs, ", "))
}

// columnType picks a column type from the first non-null cell of the column.
func (w *SQLWriter) columnType(ds schema.Dataset, col string) string {
	for r := 0; r < ds.NumRows(); r++ {
		v, _ := ds.Cell(r, col)
		switch v.Kind() {
		case schema.KindNumber:
			return "DOUBLE PRECISION"
		case schema.KindText, schema.KindDate:
			return "TEXT"
		}
	}
	return "TEXT"
}

func (w *SQLWriter) insertQuery(ds schema.Dataset) string {
	cols := ds.Columns()
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		names[i] = quoteIdent(col, w.Backend)
		marks[i] = placeholder(i+1, w.Backend)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(w.Table, w.Backend), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// toSQL converts one dataset value to a driver argument.
func toSQL(v schema.Value) any {
	switch v.Kind() {
	case schema.KindNumber:
		f, _ := v.Float()
		return f
	case schema.KindDate, schema.KindText:
		return v.String()
	default:
		return nil
	}
}
