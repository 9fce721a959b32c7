package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

const queryCanceledCode = "57014"

type Config struct {
	StatementTimeout time.Duration
	MaxRows          int
}

// Store executes validated read-only queries and serves schema metadata. It
// never issues writes on the query path; the whole statement runs inside a
// read-only transaction with a server-enforced timeout.
type Store struct {
	db  *sql.DB
	cfg Config
}

func NewStore(db *sql.DB, cfg Config) *Store {
	if cfg.StatementTimeout <= 0 {
		cfg.StatementTimeout = 30 * time.Second
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &Store{db: db, cfg: cfg}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping bank db: %w", err)
	}
	return nil
}

// RunReadOnlyQuery executes sql with the configured statement timeout and
// returns at most MaxRows typed rows.
func (s *Store) RunReadOnlyQuery(ctx context.Context, query string) ([]bankdata.Row, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, &bankdata.QueryError{Err: fmt.Errorf("begin read-only tx: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	timeoutMs := s.cfg.StatementTimeout.Milliseconds()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeoutMs)); err != nil {
		return nil, &bankdata.QueryError{Err: fmt.Errorf("set statement timeout: %w", err)}
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapQueryErr(err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &bankdata.QueryError{Err: fmt.Errorf("read result columns: %w", err)}
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, &bankdata.QueryError{Err: fmt.Errorf("read column types: %w", err)}
	}

	out := make([]bankdata.Row, 0)
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if len(out) >= s.cfg.MaxRows {
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &bankdata.QueryError{Err: fmt.Errorf("scan result row: %w", err)}
		}
		values := make([]bankdata.Value, len(columns))
		for i := range raw {
			values[i] = convertValue(raw[i], columnTypes[i].DatabaseTypeName())
		}
		cols := make([]string, len(columns))
		copy(cols, columns)
		out = append(out, bankdata.Row{Columns: cols, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, &bankdata.QueryError{Err: fmt.Errorf("commit read-only tx: %w", err)}
	}
	return out, nil
}

// SchemaInfo enumerates the public schema: tables, columns with nullability,
// and per-table row counts.
func (s *Store) SchemaInfo(ctx context.Context) (bankdata.SchemaInfo, error) {
	tableRows, err := s.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public'
ORDER BY table_name`)
	if err != nil {
		return bankdata.SchemaInfo{}, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = tableRows.Close() }()

	var names []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return bankdata.SchemaInfo{}, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := tableRows.Err(); err != nil {
		return bankdata.SchemaInfo{}, fmt.Errorf("iterate table names: %w", err)
	}

	info := bankdata.SchemaInfo{Tables: make([]bankdata.TableInfo, 0, len(names))}
	for _, name := range names {
		columns, err := s.tableColumns(ctx, name)
		if err != nil {
			return bankdata.SchemaInfo{}, err
		}
		count, err := s.tableRowCount(ctx, name)
		if err != nil {
			return bankdata.SchemaInfo{}, err
		}
		info.Tables = append(info.Tables, bankdata.TableInfo{
			Name:     name,
			RowCount: count,
			Columns:  columns,
		})
	}
	return info, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]bankdata.ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []bankdata.ColumnInfo
	for rows.Next() {
		var col bankdata.ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, fmt.Errorf("scan column for %s: %w", table, err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns for %s: %w", table, err)
	}
	return columns, nil
}

func (s *Store) tableRowCount(ctx context.Context, table string) (int64, error) {
	// table names come from information_schema, not user input
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pgQuoteIdentifier(table))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows for %s: %w", table, err)
	}
	return count, nil
}

func pgQuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func wrapQueryErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode {
		return &bankdata.QueryError{Timeout: true, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &bankdata.QueryError{Timeout: true, Err: err}
	}
	return &bankdata.QueryError{Err: fmt.Errorf("execute query: %w", err)}
}

func convertValue(raw any, dbType string) bankdata.Value {
	switch v := raw.(type) {
	case nil:
		return bankdata.Null()
	case int64:
		return bankdata.IntValue(v)
	case int32:
		return bankdata.IntValue(int64(v))
	case float64:
		return bankdata.FloatValue(v)
	case bool:
		return bankdata.IntValue(boolToInt(v))
	case time.Time:
		if strings.EqualFold(dbType, "DATE") {
			return bankdata.DateValue(v)
		}
		return bankdata.TextValue(v.Format(time.RFC3339))
	case []byte:
		return textualValue(string(v), dbType)
	case string:
		return textualValue(v, dbType)
	default:
		return bankdata.TextValue(fmt.Sprint(v))
	}
}

// NUMERIC values arrive through database/sql as their textual form; convert
// them so downstream unit rescaling and formatting see numbers.
func textualValue(text, dbType string) bankdata.Value {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL":
		if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return bankdata.FloatValue(f)
		}
	}
	return bankdata.TextValue(text)
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
