package storage

import "strings"

// matchExpression turns free text into an FTS5 query in which every
// whitespace-separated term is a quoted string, OR-ed with the others.
// Quoting keeps user input such as "c++" or "a:b" from being parsed as FTS5
// syntax. It returns "" when text has no terms.
func matchExpression(text string, prefix bool) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	if prefix {
		quoted[len(quoted)-1] += "*"
	}
	return strings.Join(quoted, " OR ")
}
