package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is a binary pass/fail; Reason carries the first failing check.
type Verdict struct {
	OK     bool
	Reason string
}

// dangerousKeywords are rejected anywhere in the statement, scanned with
// word boundaries so identifiers like UPDATED_AT do not false-positive.
var dangerousKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE",
	"TRUNCATE", "EXEC", "EXECUTE", "GRANT", "REVOKE",
}

var dangerousKeywordPatterns = compileKeywordPatterns(dangerousKeywords)

// injectionPatterns are structural signatures scanned after the keyword
// deny-list: terminator-then-mutation, comment markers, union chaining, and
// exec-call shapes.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE)`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?s)/\*.*\*/`),
	regexp.MustCompile(`(?s)UNION.*SELECT`),
	regexp.MustCompile(`EXEC\s*\(`),
}

var tableRefPattern = regexp.MustCompile(`\b(?:FROM|JOIN)\s+(\w+)`)

// Validator gates generator-produced SQL. The policy is deliberately
// conservative: an allow-list for tables, a deny-list plus structural checks
// for statements. Both the keyword scan and the table extraction are lexical
// (regex over tokens, not a parser), which is a documented accepted risk:
// obfuscated identifiers can evade the table scan, and a column or alias
// literally named after a keyword will be rejected.
type Validator struct {
	allowedTables map[string]struct{}
	allowedList   []string
}

// DefaultAllowedTables is the fixed working-schema allow-list.
var DefaultAllowedTables = []string{
	"institutions", "financials", "locations", "history", "failures",
}

func NewValidator(allowedTables []string) *Validator {
	if len(allowedTables) == 0 {
		allowedTables = DefaultAllowedTables
	}
	allowed := make(map[string]struct{}, len(allowedTables))
	list := make([]string, 0, len(allowedTables))
	for _, table := range allowedTables {
		name := strings.ToLower(strings.TrimSpace(table))
		if name == "" {
			continue
		}
		allowed[name] = struct{}{}
		list = append(list, name)
	}
	return &Validator{allowedTables: allowed, allowedList: list}
}

// Validate runs the policy checks in order and short-circuits on the first
// failure. A query is never partially valid.
func (v *Validator) Validate(sql string) Verdict {
	if strings.TrimSpace(sql) == "" {
		return reject("Empty SQL query")
	}

	sqlUpper := strings.ToUpper(strings.TrimSpace(sql))

	for i, pattern := range dangerousKeywordPatterns {
		if pattern.MatchString(sqlUpper) {
			return reject(fmt.Sprintf("Dangerous SQL keyword detected: %s", dangerousKeywords[i]))
		}
	}

	if !strings.HasPrefix(sqlUpper, "SELECT") {
		return reject("Only SELECT queries are allowed")
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(sqlUpper) {
			return reject(fmt.Sprintf("Potential SQL injection detected: %s", pattern.String()))
		}
	}

	for _, match := range tableRefPattern.FindAllStringSubmatch(sqlUpper, -1) {
		table := strings.ToLower(match[1])
		if _, ok := v.allowedTables[table]; !ok {
			return reject(fmt.Sprintf("Table '%s' is not allowed. Allowed tables: %s",
				match[1], strings.Join(v.allowedList, ", ")))
		}
	}

	if strings.Count(sql, ";") > 1 {
		return reject("Multiple statements not allowed")
	}

	if strings.Count(sql, "(") != strings.Count(sql, ")") {
		return reject("Unbalanced parentheses in SQL query")
	}

	return Verdict{OK: true}
}

func reject(reason string) Verdict {
	return Verdict{OK: false, Reason: reason}
}

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, keyword := range keywords {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	}
	return patterns
}
