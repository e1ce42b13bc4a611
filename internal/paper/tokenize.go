package paper

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries.
// Unlike a search tokenizer it keeps stop words, since abstract statistics
// count every leading token.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// JoinLead joins the first span tokens of an abstract with single spaces.
func JoinLead(p Paper, span int) string {
	return strings.Join(p.Lead(span), " ")
}
