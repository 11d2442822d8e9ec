// Package slug turns free-form names into strings that are safe to use as file names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugifier cleans strings for the use in file names.
type Slugifier struct {
	replacement        rune
	repetitionRE       *regexp.Regexp
	unicodeTransformer transform.Transformer
}

// keep lists punctuation that is safe in file names on every platform.
var keep = map[rune]bool{'.': true, '_': true}

// NewSlugifier returns an initialized Slugifier.
func NewSlugifier(replacement rune) *Slugifier {
	mappingFn := func(r rune) rune {
		if keep[r] || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return replacement
	}

	return &Slugifier{
		replacement:  replacement,
		repetitionRE: regexp.MustCompile(`(` + regexp.QuoteMeta(string(replacement)) + `{2,})`),
		// NFKD decomposes characters like ê into e and a combining mark, the mark is then dropped.
		unicodeTransformer: transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mark)), runes.Map(mappingFn)),
	}
}

var transliterations = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Slugify lower-cases s, transliterates umlauts, strips accents and replaces
// everything that is not a letter, digit, dot or underscore with the replacement rune.
// Repeated replacements are collapsed, leading and trailing replacements and dots are trimmed.
func (sl *Slugifier) Slugify(s string) string {
	s = transliterations.Replace(strings.TrimSpace(strings.ToLower(s)))

	s, _, err := transform.String(sl.unicodeTransformer, s)
	if err != nil {
		// transform.String only fails for transformers that can error, none of the chained ones do.
		panic(err)
	}

	s = sl.repetitionRE.ReplaceAllString(s, string(sl.replacement))

	return strings.Trim(s, string(sl.replacement)+".")
}
