package services

import (
	"regexp"
	"strings"
)

var parenCode = regexp.MustCompile(`\((\w{2,6})\)`)

const unknownProjectCode = "UNKNOWN"

// ExtractProjectCode derives a project code from a free-text reference. It
// tries, in order: a parenthesized code, the short prefix of a
// "CODE -- name" or "CODE — name" label, the keyword catalog, and finally
// the upper-cased first word.
func ExtractProjectCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return unknownProjectCode
	}
	if m := parenCode.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	for _, sep := range []string{" -- ", " — "} {
		if prefix, _, ok := strings.Cut(name, sep); ok {
			prefix = strings.TrimSpace(prefix)
			if len([]rune(prefix)) <= 8 {
				return strings.ReplaceAll(prefix, " ", "")
			}
			break
		}
	}
	lower := strings.ToLower(name)
	for _, kw := range catalog().Keywords {
		if strings.Contains(lower, kw.Match) {
			return kw.Code
		}
	}
	first := strings.Fields(name)[0]
	if r := []rune(first); len(r) > 8 {
		first = string(r[:8])
	}
	return strings.ToUpper(first)
}

// isStructuralLabel reports text that is never a data row: totals, formulas and
// separator lines.
func isStructuralLabel(s string) bool {
	return strings.HasPrefix(s, "TOTAL") || strings.HasPrefix(s, "=") || strings.HasPrefix(s, "~")
}

func hasDashSeparator(s string) bool {
	return strings.Contains(s, " — ") || strings.Contains(s, " -- ")
}
