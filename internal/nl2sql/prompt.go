package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/shekarbharathi/bank-fdic-v1/internal/schema"
	"github.com/shekarbharathi/bank-fdic-v1/internal/vocab"
)

const exampleQueries = `
Example SQL Queries:

1. "Top 10 banks by assets":
   SELECT name, city, stalp, asset, dep
   FROM institutions
   WHERE active = 1 AND asset IS NOT NULL
   ORDER BY asset DESC
   LIMIT 10;

2. "JPMorgan Chase deposit growth over time":
   SELECT repdte, dep, asset, roa
   FROM financials
   WHERE cert = 628
   ORDER BY repdte DESC;

3. "Banks in California with high ROA":
   SELECT i.name, i.city, f.roa, f.asset, f.dep
   FROM institutions i
   JOIN financials f ON i.cert = f.cert
   WHERE i.stalp = 'CA'
     AND i.active = 1
     AND f.repdte = (SELECT MAX(repdte) FROM financials WHERE cert = i.cert)
     AND f.roa > 1.0
   ORDER BY f.roa DESC;

4. "Capital ratio for banks (equity/assets)":
   SELECT i.name, f.eqtot / NULLIF(f.asset, 0) * 100 as capital_ratio, f.asset
   FROM institutions i
   JOIN financials f ON i.cert = f.cert
   WHERE i.active = 1
     AND f.repdte = (SELECT MAX(repdte) FROM financials WHERE cert = i.cert)
     AND f.asset > 0
   ORDER BY capital_ratio DESC
   LIMIT 20;

5. "Deposit growth year over year":
   SELECT
     f1.repdte as current_date,
     f1.dep as current_deposits,
     f2.dep as previous_deposits,
     (f1.dep - f2.dep) / NULLIF(f2.dep, 0) * 100 as growth_pct
   FROM financials f1
   JOIN financials f2 ON f1.cert = f2.cert
     AND f2.repdte = f1.repdte - INTERVAL '1 year'
   WHERE f1.cert = 628
   ORDER BY f1.repdte DESC;
`

// Assembler builds generation prompts from the live schema description,
// the bank name vocabulary, and a fixed set of worked examples.
type Assembler struct {
	schema *schema.Builder
}

func NewAssembler(builder *schema.Builder) *Assembler {
	return &Assembler{schema: builder}
}

func (a *Assembler) Assemble(ctx context.Context, question string) (string, error) {
	schemaDesc, err := a.schema.Describe(ctx)
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a SQL expert for FDIC bank data. Convert the user's question to PostgreSQL SQL.\n\n")
	b.WriteString(schemaDesc)
	b.WriteString("\n\nCommon Bank Names:\n")
	b.WriteString(vocab.MappingText())
	b.WriteString("\n\n")
	b.WriteString(vocab.MatchingInstructions())
	b.WriteString("\n")
	b.WriteString(exampleQueries)
	b.WriteString("\nUser Question: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Generate ONLY the SQL query, no explanations or markdown formatting\n")
	b.WriteString("- Use the most recent data available (use MAX(repdte) subqueries when needed)\n")
	b.WriteString("- Always filter for active banks when appropriate (WHERE active = 1)\n")
	b.WriteString("- Handle NULL values properly (use IS NOT NULL, COALESCE, NULLIF)\n")
	b.WriteString("- Use proper JOINs to combine data from multiple tables\n")
	b.WriteString("- Limit results appropriately (use LIMIT for top N queries)\n")
	b.WriteString("\nSQL Query:")
	return b.String(), nil
}
