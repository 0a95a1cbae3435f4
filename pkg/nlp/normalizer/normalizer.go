package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"

	"golang.org/x/text/unicode/norm"
)

// minSegmentLength keeps short ordinary words away from dictionary re-segmentation.
const minSegmentLength = 6

// Normalizer rewrites raw chat input into the canonical form the extractor expects.
type Normalizer struct {
	lex *lexicon.Lexicon
}

func New(lex *lexicon.Lexicon) *Normalizer {
	return &Normalizer{lex: lex}
}

// Normalize folds, splits and spell-corrects raw input.
// When nothing changes, Corrected is the original string itself.
func (n *Normalizer) Normalize(raw string) nlp.NormalizedInput {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nlp.NormalizedInput{Original: raw, Corrected: raw, Confidence: 0}
	}

	out := make([]string, 0, len(tokens))
	var corrections []nlp.Correction

	for _, tok := range tokens {
		folded := norm.NFKC.String(tok)
		lead, core, trail := splitPunctuation(folded)

		fixed := n.correctCore(core)
		rewritten := lead + fixed + trail
		if rewritten != tok {
			corrections = append(corrections, nlp.Correction{From: tok, To: rewritten})
		}
		out = append(out, rewritten)
	}

	if len(corrections) == 0 {
		return nlp.NormalizedInput{Original: raw, Corrected: raw, Confidence: 0}
	}

	return nlp.NormalizedInput{
		Original:    raw,
		Corrected:   strings.Join(out, " "),
		Confidence:  float64(len(corrections)) / float64(len(tokens)),
		Corrections: corrections,
	}
}

// Lemma maps inflected domain words to their base form.
func (n *Normalizer) Lemma(word string) string {
	return n.lex.Lemma(word)
}

func (n *Normalizer) correctCore(core string) string {
	if core == "" {
		return core
	}

	pieces := n.split(core)
	for i, p := range pieces {
		if fix, ok := n.lex.Correction(strings.ToLower(p)); ok {
			pieces[i] = fix
		}
	}
	return strings.Join(pieces, " ")
}

// split breaks glued tokens apart. Letter/digit runs are separated only when
// every letter run is a domain word, so part numbers like AB12345 survive.
func (n *Normalizer) split(core string) []string {
	runs := charRuns(core)
	if runs == nil {
		return []string{core}
	}

	if len(runs) > 1 {
		for _, r := range runs {
			if !isLetters(r) {
				continue
			}
			if !n.isKnown(r) {
				return []string{core}
			}
		}
		return runs
	}

	lower := strings.ToLower(core)
	if !isLetters(core) || len(core) < minSegmentLength || n.isKnown(lower) {
		return []string{core}
	}
	if words := n.segment(lower); len(words) >= 2 {
		return words
	}
	return []string{core}
}

func (n *Normalizer) isKnown(word string) bool {
	w := strings.ToLower(word)
	if n.lex.IsDomainWord(w) {
		return true
	}
	if fix, ok := n.lex.Correction(w); ok {
		return n.lex.IsDomainWord(fix)
	}
	return false
}

// segment covers s with the fewest domain words, or returns nil.
func (n *Normalizer) segment(s string) []string {
	size := len(s)
	best := make([]int, size+1)
	prev := make([]int, size+1)
	for i := 1; i <= size; i++ {
		best[i] = -1
		for j := 0; j < i; j++ {
			if best[j] < 0 || !n.lex.IsDomainWord(s[j:i]) {
				continue
			}
			if best[i] < 0 || best[j]+1 < best[i] {
				best[i] = best[j] + 1
				prev[i] = j
			}
		}
	}
	if best[size] < 0 {
		return nil
	}

	words := make([]string, best[size])
	for i, k := size, best[size]-1; i > 0; k-- {
		words[k] = s[prev[i]:i]
		i = prev[i]
	}
	return words
}

// charRuns splits an alphanumeric token into letter and digit runs.
// Tokens containing anything else return nil.
func charRuns(s string) []string {
	var runs []string
	start := 0
	prevLetter := false
	for i, r := range s {
		letter := unicode.IsLetter(r)
		if !letter && !unicode.IsDigit(r) {
			return nil
		}
		if i > 0 && letter != prevLetter {
			runs = append(runs, s[start:i])
			start = i
		}
		prevLetter = letter
	}
	return append(runs, s[start:])
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func splitPunctuation(tok string) (lead, core, trail string) {
	start := strings.IndexFunc(tok, isWordRune)
	if start < 0 {
		return tok, "", ""
	}
	end := strings.LastIndexFunc(tok, isWordRune)
	_, size := utf8.DecodeRuneInString(tok[end:])
	return tok[:start], tok[start : end+size], tok[end+size:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
