package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var institutionColumns = []string{
	"cert", "name", "city", "stalp", "stname", "zip", "asset", "dep", "depdom",
	"bkclass", "charter", "dateupdt", "active", "fed_rssd",
}

var financialColumns = []string{
	"cert", "repdte", "asset", "dep", "depdom", "eqtot", "roa", "roaptx",
	"netinc", "nimy", "lnlsnet", "elnatr",
}

var failureColumns = []string{
	"cert", "name", "city", "stalp", "faildate", "qbfdep", "qbfasset", "cost",
}

// Loader writes FDIC records into Postgres with batched upserts keyed on
// each table's natural key.
type Loader struct {
	db        *sql.DB
	batchSize int
}

func NewLoader(db *sql.DB, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Loader{db: db, batchSize: batchSize}
}

func (l *Loader) UpsertInstitutions(ctx context.Context, records []Record) (int, error) {
	conflict := "ON CONFLICT (cert) DO UPDATE SET " + excludedSet(institutionColumns[1:])
	return l.upsertBatches(ctx, "institutions", institutionColumns, conflict, records, func(rec Record) []any {
		return []any{
			rec.Field("CERT"),
			rec.Field("NAME"),
			rec.Field("CITY"),
			rec.Field("STALP"),
			rec.Field("STNAME"),
			rec.Field("ZIP"),
			rec.Field("ASSET"),
			rec.Field("DEP"),
			rec.Field("DEPDOM"),
			rec.Field("BKCLASS"),
			rec.Field("CHARTER"),
			nullableDate(rec.Field("DATEUPDT")),
			rec.Field("ACTIVE"),
			rec.Field("FED_RSSD"),
		}
	})
}

func (l *Loader) UpsertFinancials(ctx context.Context, records []Record) (int, error) {
	conflict := "ON CONFLICT (cert, repdte) DO UPDATE SET " + excludedSet(financialColumns[2:])
	return l.upsertBatches(ctx, "financials", financialColumns, conflict, records, func(rec Record) []any {
		return []any{
			rec.Field("CERT"),
			nullableDate(rec.Field("REPDTE")),
			rec.Field("ASSET"),
			rec.Field("DEP"),
			rec.Field("DEPDOM"),
			rec.Field("EQTOT"),
			rec.Field("ROA"),
			rec.Field("ROAPTX"),
			rec.Field("NETINC"),
			rec.Field("NIMY"),
			rec.Field("LNLSNET"),
			rec.Field("ELNATR"),
		}
	})
}

func (l *Loader) UpsertFailures(ctx context.Context, records []Record) (int, error) {
	conflict := "ON CONFLICT (cert) DO UPDATE SET " + excludedSet(failureColumns[1:])
	return l.upsertBatches(ctx, "failures", failureColumns, conflict, records, func(rec Record) []any {
		return []any{
			rec.Field("CERT"),
			rec.Field("NAME"),
			rec.Field("CITY"),
			rec.Field("STALP"),
			nullableDate(rec.Field("FAILDATE")),
			rec.Field("QBFDEP"),
			rec.Field("QBFASSET"),
			rec.Field("COST"),
		}
	})
}

func (l *Loader) upsertBatches(ctx context.Context, table string, columns []string, conflict string, records []Record, extract func(Record) []any) (int, error) {
	upserted := 0
	for start := 0; start < len(records); start += l.batchSize {
		end := start + l.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES %s %s, updated_at = CURRENT_TIMESTAMP",
			table,
			strings.Join(columns, ", "),
			placeholderRows(len(batch), len(columns)),
			conflict,
		)
		args := make([]any, 0, len(batch)*len(columns))
		for _, rec := range batch {
			args = append(args, extract(rec)...)
		}
		if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
			return upserted, fmt.Errorf("upsert %s batch: %w", table, err)
		}
		upserted += len(batch)
	}
	return upserted, nil
}

// placeholderRows renders "($1, $2), ($3, $4)" style value lists.
func placeholderRows(rows, cols int) string {
	var b strings.Builder
	arg := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteString(")")
	}
	return b.String()
}

func excludedSet(columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return strings.Join(parts, ", ")
}

// nullableDate maps the API's empty-string dates to NULL so Postgres DATE
// columns accept them.
func nullableDate(value any) any {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return value
}
