// Package schema renders the database metadata, relationship list, and field
// glossary into the textual context the SQL generator is grounded on.
package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

// tableDescriptions annotates the working-schema tables for the prompt.
var tableDescriptions = map[string]string{
	"institutions": "Bank institution data including name, location, assets, deposits, and status",
	"financials":   "Quarterly financial reports with assets, deposits, ROA, net income, and other metrics",
	"locations":    "Branch and location data for all FDIC-insured institutions",
	"history":      "Structure change events such as mergers, acquisitions, and name changes",
	"failures":     "Data on failed financial institutions",
}

// Builder produces the schema description. The underlying metadata query
// runs at most once per process; concurrent first callers share a single
// population via singleflight.
type Builder struct {
	store bankdata.Store

	group singleflight.Group
	mu    sync.RWMutex
	info  *bankdata.SchemaInfo
	text  string
}

func NewBuilder(store bankdata.Store) *Builder {
	return &Builder{store: store}
}

// Describe returns the rendered schema context, building and caching it on
// first use.
func (b *Builder) Describe(ctx context.Context) (string, error) {
	b.mu.RLock()
	if b.text != "" {
		text := b.text
		b.mu.RUnlock()
		return text, nil
	}
	b.mu.RUnlock()

	_, err, _ := b.group.Do("schema", func() (any, error) {
		info, err := b.store.SchemaInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch schema metadata: %w", err)
		}
		text := render(info)
		b.mu.Lock()
		b.info = &info
		b.text = text
		b.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return "", err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text, nil
}

// Info returns the cached metadata snapshot, populating it if needed.
func (b *Builder) Info(ctx context.Context) (bankdata.SchemaInfo, error) {
	if _, err := b.Describe(ctx); err != nil {
		return bankdata.SchemaInfo{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return *b.info, nil
}

// Invalidate drops the cached description so the next Describe rebuilds it.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	b.info = nil
	b.text = ""
	b.mu.Unlock()
}

func render(info bankdata.SchemaInfo) string {
	var b strings.Builder
	b.WriteString("Database Schema for FDIC Bank Data:\n\n")

	for _, table := range info.Tables {
		desc, ok := tableDescriptions[table.Name]
		if !ok {
			desc = "Banking data table"
		}
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		fmt.Fprintf(&b, "  Description: %s\n", desc)
		fmt.Fprintf(&b, "  Row count: %s\n", groupDigits(table.RowCount))
		b.WriteString("  Columns:\n")
		for _, col := range table.Columns {
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			fmt.Fprintf(&b, "    - %s (%s) %s\n", col.Name, col.Type, nullable)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Relationships:
  - financials.cert references institutions.cert (many-to-one)
  - locations.cert references institutions.cert (many-to-one)
  - history.cert references institutions.cert (many-to-one)

Important Field Meanings:
  - cert: Certificate number (unique bank identifier)
  - name: Bank name
  - asset: Total assets (stored in thousands of dollars)
  - dep: Total deposits (stored in thousands of dollars)
  - roa: Return on assets (percentage)
  - eqtot: Total equity capital (stored in thousands of dollars)
  - netinc: Net income (stored in thousands of dollars)
  - repdte: Report date (YYYY-MM-DD format)
  - active: 1 if bank is active, 0 if inactive
  - stalp: State abbreviation (2 letters)
  - stname: Full state name

IMPORTANT UNITS: The columns asset, dep, depdom, eqtot, netinc, lnlsnet,
qbfasset, qbfdep, and cost store amounts in THOUSANDS of dollars. Multiply
by 1000 to report actual dollar amounts.
`)

	return b.String()
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
