package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// suffixes are stripped from each search word, longest first. Only one
// suffix is removed; there is no stemming beyond this.
var suffixes = []string{"s's", "'s", "s'", "s"}

// Tokenize splits a search string into normalized words: lower-cased,
// possessive/plural suffix stripped, empty words dropped.
func Tokenize(search string) []string {
	search = norm.NFC.String(search)
	search = strings.ReplaceAll(search, "’", "'")

	lower := cases.Lower(language.Und)
	var tokens []string
	for _, word := range strings.Fields(search) {
		word = lower.String(word)
		for _, suffix := range suffixes {
			if strings.HasSuffix(word, suffix) {
				word = strings.TrimSuffix(word, suffix)
				break
			}
		}
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Match builds the search predicate: every token must appear as a
// case-insensitive substring of at least one of fields. Both sides are
// compared after Fold.
func Match(search string, fields []string) Expr {
	var terms []Expr
	for _, token := range Tokenize(search) {
		pattern := "%" + likeEscaper.Replace(Fold(token)) + "%"
		var alternatives []Expr
		for _, field := range fields {
			alternatives = append(alternatives, Where(FoldFunc+"("+field+`) LIKE ? ESCAPE '\'`, pattern))
		}
		terms = append(terms, Or(alternatives...))
	}
	return And(terms...)
}
