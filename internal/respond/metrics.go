package respond

import (
	"math"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

// CapitalRatio returns equity/assets as a percentage.
func CapitalRatio(equity, assets float64) (float64, bool) {
	if assets <= 0 {
		return 0, false
	}
	return equity / assets * 100, true
}

// GrowthRate returns period-over-period growth as a percentage.
func GrowthRate(current, previous float64) (float64, bool) {
	if previous <= 0 {
		return 0, false
	}
	return (current - previous) / previous * 100, true
}

// ReturnOnAssets returns net income over assets as a percentage.
func ReturnOnAssets(netIncome, assets float64) (float64, bool) {
	if assets <= 0 {
		return 0, false
	}
	return netIncome / assets * 100, true
}

// EfficiencyRatio returns non-interest expense over revenue as a percentage.
func EfficiencyRatio(expense, revenue float64) (float64, bool) {
	if revenue <= 0 {
		return 0, false
	}
	return expense / revenue * 100, true
}

// IndustryAverage averages a numeric column across rows, skipping nulls and
// non-numeric cells.
func IndustryAverage(rows []bankdata.Row, column string) (float64, bool) {
	var sum float64
	var n int
	for _, row := range rows {
		value, ok := row.Get(column)
		if !ok {
			continue
		}
		f, ok := value.Numeric()
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Enrich appends derived metric columns when the result set carries the
// inputs: capital_ratio when eqtot and asset are selected, calculated_roa
// when netinc and asset are selected. The decision is made once per result
// set so every row gains the same columns; rows whose inputs are NULL get a
// NULL metric. Columns already present (the query aliased its own ratio) are
// left alone. Input rows are not mutated.
func Enrich(rows []bankdata.Row) []bankdata.Row {
	if len(rows) == 0 {
		return rows
	}
	first := rows[0]
	addRatio := hasColumns(first, "eqtot", "asset") && !hasColumns(first, "capital_ratio")
	addROA := hasColumns(first, "netinc", "asset") && !hasColumns(first, "calculated_roa")
	if !addRatio && !addROA {
		return rows
	}

	out := make([]bankdata.Row, 0, len(rows))
	for _, row := range rows {
		enriched := row
		if addRatio {
			enriched = enriched.With("capital_ratio", deriveValue(row, "eqtot", "asset", CapitalRatio))
		}
		if addROA {
			enriched = enriched.With("calculated_roa", deriveValue(row, "netinc", "asset", ReturnOnAssets))
		}
		out = append(out, enriched)
	}
	return out
}

func hasColumns(row bankdata.Row, columns ...string) bool {
	for _, column := range columns {
		if _, ok := row.Get(column); !ok {
			return false
		}
	}
	return true
}

func deriveValue(row bankdata.Row, numCol, denomCol string, metric func(float64, float64) (float64, bool)) bankdata.Value {
	value, ok := derive(row, numCol, denomCol, metric)
	if !ok {
		return bankdata.Null()
	}
	return bankdata.FloatValue(value)
}

func derive(row bankdata.Row, numCol, denomCol string, metric func(float64, float64) (float64, bool)) (float64, bool) {
	num, ok := numericCell(row, numCol)
	if !ok {
		return 0, false
	}
	denom, ok := numericCell(row, denomCol)
	if !ok {
		return 0, false
	}
	value, ok := metric(num, denom)
	if !ok {
		return 0, false
	}
	return math.Round(value*100) / 100, true
}

func numericCell(row bankdata.Row, column string) (float64, bool) {
	value, ok := row.Get(column)
	if !ok {
		return 0, false
	}
	return value.Numeric()
}
