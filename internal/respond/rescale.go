// Package respond turns typed result rows into the final natural-language
// answer: unit rescaling, derived financial metrics, and intent-aware
// markdown rendering with magnitude-compressed numbers.
package respond

import (
	"strings"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

// thousandsColumns are the monetary columns the dataset stores in thousands
// of dollars. The *_dollars names are included so that SQL-converted aliases
// are recognized and left alone.
var thousandsColumns = map[string]struct{}{
	"asset":    {},
	"dep":      {},
	"depdom":   {},
	"eqtot":    {},
	"netinc":   {},
	"lnlsnet":  {},
	"qbfasset": {},
	"qbfdep":   {},
	"cost":     {},
	"assets_dollars":            {},
	"deposits_dollars":          {},
	"current_deposits_dollars":  {},
	"previous_deposits_dollars": {},
}

// rescaleGuard is the magnitude above which a value is assumed to already be
// in dollars. This is idempotence by convention, not by value-range proof: a
// provenance tag does not exist, so a true-thousands value at or above this
// magnitude would be left unconverted. Known limitation, kept deliberately.
const rescaleGuard = 10_000_000

// Rescale converts thousands-denominated cells to actual dollars, producing
// new rows. Columns whose name carries a "_dollars" marker were already
// converted in SQL and are never multiplied again.
func Rescale(rows []bankdata.Row) []bankdata.Row {
	if len(rows) == 0 {
		return rows
	}
	out := make([]bankdata.Row, 0, len(rows))
	for _, row := range rows {
		values := make([]bankdata.Value, len(row.Values))
		for i, col := range row.Columns {
			values[i] = rescaleCell(col, row.Values[i])
		}
		columns := make([]string, len(row.Columns))
		copy(columns, row.Columns)
		out = append(out, bankdata.Row{Columns: columns, Values: values})
	}
	return out
}

func rescaleCell(column string, value bankdata.Value) bankdata.Value {
	colLower := strings.ToLower(column)
	if _, ok := thousandsColumns[colLower]; !ok {
		return value
	}
	if strings.Contains(colLower, "_dollars") {
		return value
	}
	switch value.Kind {
	case bankdata.KindInt:
		if abs64(value.Int) < rescaleGuard {
			return bankdata.IntValue(value.Int * 1000)
		}
	case bankdata.KindFloat:
		if absFloat(value.Float) < rescaleGuard {
			return bankdata.FloatValue(value.Float * 1000)
		}
	}
	return value
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
