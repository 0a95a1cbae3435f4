package extractor

import (
	"regexp"
	"strings"
)

// PartShape is one accepted part-number layout.
type PartShape struct {
	Name string
	re   *regexp.Regexp
}

// partShapes are tried strictest first; the first hit decides.
var partShapes = []PartShape{
	{Name: "prefix_letters_digits", re: regexp.MustCompile(`^[A-Z]{2,3}\d{4,6}$`)},
	{Name: "letter_digits", re: regexp.MustCompile(`^[A-Z]\d+$`)},
	{Name: "digits_letters", re: regexp.MustCompile(`^\d+[A-Z]+$`)},
	{Name: "letters_digits_suffix", re: regexp.MustCompile(`^[A-Z]+\d+-[A-Z]+$`)},
}

var (
	candidateRe   = regexp.MustCompile(`\b[A-Za-z0-9][A-Za-z0-9-]*[A-Za-z0-9]\b|\b[A-Za-z0-9]\b`)
	opportunityRe = regexp.MustCompile(`(?i)^CRF\d+$`)
	hasLetterRe   = regexp.MustCompile(`[A-Za-z]`)
	hasDigitRe    = regexp.MustCompile(`\d`)
)

// leetFold undoes digit-for-letter spellings so 5TATUS is caught by the blocklist.
var leetFold = strings.NewReplacer("0", "O", "1", "I", "3", "E", "4", "A", "5", "S", "7", "T", "8", "B")

// MatchPartShape returns the first shape the upper-cased token satisfies.
func MatchPartShape(token string) (PartShape, bool) {
	up := strings.ToUpper(token)
	for _, s := range partShapes {
		if s.re.MatchString(up) {
			return s, true
		}
	}
	return PartShape{}, false
}

// isPartCandidate reports whether a token mixes letters and digits.
func isPartCandidate(token string) bool {
	return hasLetterRe.MatchString(token) && hasDigitRe.MatchString(token)
}
