package fuzzy

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold prepares a narration for comparison: accents stripped, lower-cased,
// whitespace collapsed.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Score returns the normalized edit distance between two narrations:
// 0 for identical folded text, approaching 1 for unrelated text. Insertions
// and deletions cost 1 and substitutions 2, so dividing by the combined
// length keeps the score within [0, 1].
func Score(a, b string) float64 {
	return scoreRunes([]rune(Fold(a)), []rune(Fold(b)))
}

func scoreRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	d := levenshtein.DistanceForStrings(a, b, levenshtein.DefaultOptions)
	return float64(d) / float64(total)
}
