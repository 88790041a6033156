package normalizer

import (
	"strconv"
	"strings"
)

// Keys is the pair of join keys derived for one record.
//
// Two keys exist because narration truncation collides at the front for
// common prefixes ("TRANSFER TO ...") and at the back for common suffixes
// ("...REF12345"). Trying both widens recall without a single perfect key.
type Keys struct {
	First string
	Last  string
	Key1  string
	Key2  string
}

// DeriveKeys computes the helper keys for a normalized narration and a signed
// amount. It is a pure function of its arguments. An empty narration yields
// "_<amount>" for both keys, which degrades matching to amount only.
func DeriveKeys(normalizedNarration string, amount float64, keyLength int) Keys {
	if keyLength <= 0 {
		keyLength = DefaultKeyLength
	}

	runes := []rune(normalizedNarration)
	first, last := normalizedNarration, normalizedNarration
	if len(runes) > keyLength {
		first = string(runes[:keyLength])
		last = string(runes[len(runes)-keyLength:])
	}
	first = strings.TrimSpace(strings.ToUpper(first))
	last = strings.TrimSpace(strings.ToUpper(last))

	amt := FormatAmount(amount)
	return Keys{
		First: first,
		Last:  last,
		Key1:  first + "_" + amt,
		Key2:  last + "_" + amt,
	}
}

// FormatAmount renders an amount the way keys and identity signatures embed
// it: the shortest exact decimal form, with negative zero folded to "0".
func FormatAmount(amount float64) string {
	if amount == 0 {
		amount = 0
	}
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// CollapseWhitespace collapses runs of whitespace to a single space and trims
// both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
