// Package vocab maps casual bank names to the canonical institution names
// stored in the dataset, and carries the matching instructions the SQL
// generator must follow. The table is static and never mutated at runtime.
package vocab

import (
	"fmt"
	"sort"
	"strings"
)

// bankAliases maps lowercase casual names to canonical institution names.
// Many aliases map to one canonical name.
var bankAliases = map[string]string{
	"jp morgan":       "JPMorgan Chase",
	"jpmorgan":        "JPMorgan Chase",
	"jpm":             "JPMorgan Chase",
	"chase":           "JPMorgan Chase",
	"chase bank":      "JPMorgan Chase",
	"jpmorgan chase":  "JPMorgan Chase",
	"j.p. morgan":     "JPMorgan Chase",
	"j p morgan":      "JPMorgan Chase",
	"jpmorgan chase bank": "JPMorgan Chase",
	"jpmorgan chase bank national association": "JPMorgan Chase",

	"bank of america": "Bank of America",
	"bofa":            "Bank of America",
	"boa":             "Bank of America",
	"b of a":          "Bank of America",
	"bank of a":       "Bank of America",
	"bank of america national association": "Bank of America",

	"wells fargo":      "Wells Fargo",
	"wells":            "Wells Fargo",
	"wf":               "Wells Fargo",
	"wells fargo bank": "Wells Fargo",
	"wells fargo bank national association": "Wells Fargo",

	"citibank":  "Citibank",
	"citi":      "Citibank",
	"citigroup": "Citibank",
	"citibank national association": "Citibank",

	"us bank":   "U.S. Bank",
	"usbank":    "U.S. Bank",
	"u.s. bank": "U.S. Bank",
	"usb":       "U.S. Bank",
	"us bank national association": "U.S. Bank",

	"pnc":      "PNC Bank",
	"pnc bank": "PNC Bank",

	"truist":      "Truist Bank",
	"truist bank": "Truist Bank",
	"bb&t":        "Truist Bank",
	"bbt":         "Truist Bank",
	"suntrust":    "Truist Bank",
	"sun trust":   "Truist Bank",

	"capital one": "Capital One",
	"cap one":     "Capital One",
	"capitalone":  "Capital One",

	"td bank":          "TD Bank",
	"toronto dominion": "TD Bank",
	"td":               "TD Bank",

	"bny mellon":       "Bank of New York Mellon",
	"bank of new york": "Bank of New York Mellon",
	"bny":              "Bank of New York Mellon",
	"mellon":           "Bank of New York Mellon",

	"state street": "State Street",
	"statestreet":  "State Street",

	"goldman sachs": "Goldman Sachs",
	"goldman":       "Goldman Sachs",
	"gs":            "Goldman Sachs",

	"morgan stanley": "Morgan Stanley",
	"ms":             "Morgan Stanley",

	"charles schwab": "Charles Schwab",
	"schwab":         "Charles Schwab",

	"ally":      "Ally Bank",
	"ally bank": "Ally Bank",
	"gmac":      "Ally Bank",

	"discover":      "Discover Bank",
	"discover bank": "Discover Bank",

	"american express": "American Express",
	"amex":             "American Express",
	"americanexpress":  "American Express",

	"regions":      "Regions Bank",
	"regions bank": "Regions Bank",

	"fifth third": "Fifth Third Bank",
	"5/3":         "Fifth Third Bank",
	"53":          "Fifth Third Bank",
	"fifththird":  "Fifth Third Bank",

	"keybank":  "KeyBank",
	"key bank": "KeyBank",
	"key":      "KeyBank",

	"huntington":      "Huntington Bank",
	"huntington bank": "Huntington Bank",

	"citizens":      "Citizens Bank",
	"citizens bank": "Citizens Bank",

	"m&t":     "M&T Bank",
	"m and t": "M&T Bank",
	"mt bank": "M&T Bank",

	"first republic": "First Republic Bank",
	"firstrepublic":  "First Republic Bank",

	"svb":            "Silicon Valley Bank",
	"silicon valley": "Silicon Valley Bank",

	"signature":      "Signature Bank",
	"signature bank": "Signature Bank",

	"first citizens": "First Citizens Bank",
	"firstcitizens":  "First Citizens Bank",

	"zions":      "Zions Bank",
	"zions bank": "Zions Bank",

	"comerica":      "Comerica Bank",
	"comerica bank": "Comerica Bank",

	"first horizon": "First Horizon Bank",
	"firsthorizon":  "First Horizon Bank",

	"nycb":              "New York Community Bank",
	"new york community": "New York Community Bank",

	"east west": "East West Bank",
	"eastwest":  "East West Bank",

	"popular":       "Popular Bank",
	"popular bank":  "Popular Bank",
	"banco popular": "Popular Bank",

	"webster":      "Webster Bank",
	"webster bank": "Webster Bank",

	"valley national": "Valley National Bank",
	"valleynational":  "Valley National Bank",

	"associated":      "Associated Bank",
	"associated bank": "Associated Bank",

	"old national": "Old National Bank",
	"oldnational":  "Old National Bank",

	"first national": "First National Bank",
	"firstnational":  "First National Bank",
	"fnb":            "First National Bank",

	"pinnacle":      "Pinnacle Bank",
	"pinnacle bank": "Pinnacle Bank",

	"wintrust":           "Wintrust Financial",
	"wintrust financial": "Wintrust Financial",

	"first interstate": "First Interstate Bank",
	"firstinterstate":  "First Interstate Bank",

	"umb":      "UMB Bank",
	"umb bank": "UMB Bank",

	"bok":           "BOK Financial",
	"bok financial": "BOK Financial",

	"first hawaiian": "First Hawaiian Bank",
	"firsthawaiian":  "First Hawaiian Bank",
	"fhb":            "First Hawaiian Bank",

	"bank of hawaii": "Bank of Hawaii",
	"boh":            "Bank of Hawaii",

	"central pacific": "Central Pacific Bank",
	"centralpacific":  "Central Pacific Bank",

	"american savings": "American Savings Bank",
	"americansavings":  "American Savings Bank",
}

// Canonical resolves a casual name to its canonical institution name. The
// second return reports whether the alias is known.
func Canonical(alias string) (string, bool) {
	name, ok := bankAliases[strings.ToLower(strings.TrimSpace(alias))]
	return name, ok
}

// MappingText renders the alias table for the prompt, grouping aliases per
// canonical name with deterministic ordering.
func MappingText() string {
	byCanonical := make(map[string][]string)
	for alias, canonical := range bankAliases {
		byCanonical[canonical] = append(byCanonical[canonical], alias)
	}

	canonicals := make([]string, 0, len(byCanonical))
	for canonical := range byCanonical {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	var b strings.Builder
	b.WriteString("Bank Name Mapping (Common/Casual Names → Official FDIC Names):\n")
	b.WriteString("When users mention banks by casual names, use these mappings to find the official name:\n\n")
	for _, canonical := range canonicals {
		aliases := byCanonical[canonical]
		sort.Strings(aliases)
		quoted := make([]string, len(aliases))
		for i, alias := range aliases {
			quoted[i] = fmt.Sprintf("%q", alias)
		}
		fmt.Fprintf(&b, "  %s → %q\n", strings.Join(quoted, ", "), canonical)
	}
	return b.String()
}

// MatchingInstructions tells the generator how to turn canonical names into
// predicates. Stored names carry legal suffixes ("National Association",
// "N.A.") absent from casual usage, so exact-match predicates systematically
// under-match; case-insensitive substring matching is required, not a hint.
func MatchingInstructions() string {
	return `
IMPORTANT: Bank Name Matching Instructions:

1. When users mention banks by casual/common names (e.g., "JP Morgan", "Chase", "BofA"),
   FIRST look up the official FDIC name using the Bank Name Mapping above.

2. Use ILIKE with wildcards for fuzzy matching in SQL:
   - Example: If user says "JP Morgan", use: WHERE name ILIKE '%JPMorgan Chase%'
   - Example: If user says "Wells Fargo", use: WHERE name ILIKE '%Wells Fargo%'
   - Example: If user says "BofA", use: WHERE name ILIKE '%Bank of America%'

3. Always use ILIKE (case-insensitive) with % wildcards on both sides for maximum matching:
   - Correct: WHERE name ILIKE '%JPMorgan Chase%'
   - Incorrect: WHERE name = 'JPMorgan Chase' (too strict, may miss variations)

4. The official FDIC names may include suffixes like "National Association", "N.A.", etc.
   Using ILIKE with % wildcards will match these variations automatically.

5. If a bank name is not in the mapping, still use ILIKE with % wildcards to match partial names.
`
}
