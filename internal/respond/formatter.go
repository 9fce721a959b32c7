package respond

import (
	"fmt"
	"math"
	"strings"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

// Intent classifies what shape of answer the question expects. Derived per
// request from the question text, never persisted.
type Intent string

const (
	IntentRanking Intent = "ranking"
	IntentTrend   Intent = "trend"
	IntentCount   Intent = "count"
	IntentRatio   Intent = "ratio"
	IntentGeneral Intent = "general"
)

var (
	rankingKeywords = []string{"top", "best", "highest", "largest"}
	trendKeywords   = []string{"trend", "growth", "over time", "history"}
	countKeywords   = []string{"count", "how many", "number"}
	ratioKeywords   = []string{"ratio", "capital"}

	exactPhrases = []string{"exact", "unrounded", "full number"}

	// currencyKeywords decide dollar-vs-plain rendering from the column name.
	currencyKeywords = []string{
		"asset", "dep", "deposit", "eqtot", "netinc", "income",
		"lnlsnet", "loan", "equity", "cost", "dollar", "qbf",
	}
)

// rowCaps limits rendered rows per intent; counts render a single sentence.
var rowCaps = map[Intent]int{
	IntentRanking: 20,
	IntentTrend:   30,
	IntentRatio:   20,
	IntentGeneral: 50,
}

const emptyResponse = "I couldn't find any data matching your query. " +
	"Try rephrasing your question or checking if the data exists in the database."

// Classify picks exactly one intent by keyword scan, in fixed precedence:
// ranking > trend > count > ratio > general.
func Classify(question string) Intent {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, rankingKeywords):
		return IntentRanking
	case containsAny(q, trendKeywords):
		return IntentTrend
	case containsAny(q, countKeywords):
		return IntentCount
	case containsAny(q, ratioKeywords):
		return IntentRatio
	default:
		return IntentGeneral
	}
}

// Format renders rescaled rows as the final answer text for the question.
func Format(question string, rows []bankdata.Row) string {
	if len(rows) == 0 {
		return emptyResponse
	}

	exact := containsAny(strings.ToLower(question), exactPhrases)

	switch Classify(question) {
	case IntentRanking:
		return renderTable("Here are the results:", rows, rowCaps[IntentRanking], "top ", exact)
	case IntentTrend:
		return renderTable("Here's the trend data:", rows, rowCaps[IntentTrend], "", exact)
	case IntentCount:
		if sentence, ok := countSentence(rows); ok {
			return sentence
		}
		return renderTable("Here are the results:", rows, rowCaps[IntentGeneral], "", exact)
	case IntentRatio:
		return renderTable("Here are the results:", rows, rowCaps[IntentRatio], "top ", exact)
	default:
		return renderTable("Here are the results:", rows, rowCaps[IntentGeneral], "", exact)
	}
}

// countSentence handles the single-aggregate shape; anything else falls back
// to the general table.
func countSentence(rows []bankdata.Row) (string, bool) {
	if len(rows) != 1 || len(rows[0].Values) != 1 {
		return "", false
	}
	value := rows[0].Values[0]
	if value.IsNull() {
		return "The answer is **N/A**.", true
	}
	if f, ok := value.Numeric(); ok {
		return fmt.Sprintf("The answer is **%s**.", groupedNumber(f, isIntegral(value))), true
	}
	return fmt.Sprintf("The answer is **%s**.", value.String()), true
}

func renderTable(header string, rows []bankdata.Row, limit int, truncPrefix string, exact bool) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	columns := rows[0].Columns
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(columns)) + "\n")

	shown := len(rows)
	if shown > limit {
		shown = limit
	}
	for _, row := range rows[:shown] {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatCell(col, row.Values[i], exact)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	if len(rows) > limit {
		fmt.Fprintf(&b, "\n(Showing %s%d of %d results)", truncPrefix, limit, len(rows))
	}
	return b.String()
}

func formatCell(column string, value bankdata.Value, exact bool) string {
	if value.IsNull() {
		return "N/A"
	}
	f, numeric := value.Numeric()
	if !numeric {
		return value.String()
	}

	dollar := isCurrencyColumn(column)
	if exact {
		return currencyPrefix(f, dollar) + groupedNumber(f, isIntegral(value))
	}
	return currencyPrefix(f, dollar) + bucketNumber(f, isIntegral(value))
}

// bucketNumber compresses magnitude into a K/M/B/T suffix at two decimals.
// The sign stays outside any currency prefix, so -4.2e9 renders "-$4.20B".
func bucketNumber(f float64, integral bool) string {
	a := math.Abs(f)
	switch {
	case a >= 1e12:
		return fmt.Sprintf("%.2fT", a/1e12)
	case a >= 1e9:
		return fmt.Sprintf("%.2fB", a/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%.2fM", a/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.2fK", a/1e3)
	case integral:
		return fmt.Sprintf("%.0f", a)
	default:
		return fmt.Sprintf("%.2f", a)
	}
}

func currencyPrefix(f float64, dollar bool) string {
	sign := ""
	if f < 0 {
		sign = "-"
	}
	if dollar {
		return sign + "$"
	}
	return sign
}

// groupedNumber renders the full magnitude with thousands separators, used
// when the question asks for exact/unrounded values.
func groupedNumber(f float64, integral bool) string {
	a := math.Abs(f)
	if integral {
		return groupDigitString(fmt.Sprintf("%.0f", a))
	}
	s := fmt.Sprintf("%.2f", a)
	dot := strings.IndexByte(s, '.')
	return groupDigitString(s[:dot]) + s[dot:]
}

func groupDigitString(digits string) string {
	for i := len(digits) - 3; i > 0; i -= 3 {
		digits = digits[:i] + "," + digits[i:]
	}
	return digits
}

func isIntegral(v bankdata.Value) bool {
	switch v.Kind {
	case bankdata.KindInt:
		return true
	case bankdata.KindFloat:
		return v.Float == math.Trunc(v.Float)
	case bankdata.KindText:
		return !strings.Contains(v.Text, ".")
	default:
		return false
	}
}

func isCurrencyColumn(column string) bool {
	return containsAny(strings.ToLower(column), currencyKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
