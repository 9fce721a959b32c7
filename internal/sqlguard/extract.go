// Package sqlguard turns raw generator output into a single sanitized SQL
// string and gates it behind a deterministic safety policy. Everything here
// is pure: extraction and sanitization never fail, and validation is a
// fail-fast sequence of lexical checks over untrusted text.
package sqlguard

import (
	"regexp"
	"strings"
)

var (
	fencedBlockPattern = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)```")
	inlineCodePattern  = regexp.MustCompile("`([^`]+)`")
	lineCommentPattern = regexp.MustCompile(`(?m)--.*$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Extract pulls the SQL statement out of model output that may wrap it in
// markdown. Preference order: first fenced code block, then the first inline
// code span containing SELECT, then the raw trimmed text.
func Extract(raw string) string {
	if m := fencedBlockPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, m := range inlineCodePattern.FindAllStringSubmatch(raw, -1) {
		if strings.Contains(strings.ToUpper(m[1]), "SELECT") {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(raw)
}

// Sanitize strips SQL comments and collapses whitespace runs to single
// spaces. It is idempotent; worst case it returns non-SQL text the
// validator then rejects.
func Sanitize(sql string) string {
	sql = lineCommentPattern.ReplaceAllString(sql, "")
	sql = blockCommentPattern.ReplaceAllString(sql, "")
	return strings.Join(strings.Fields(sql), " ")
}
