package normalizer

import (
	"testing"

	"bcct-chatbot-be/pkg/lexicon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return New(lex)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := newNormalizer(t)

	got := n.Normalize("")
	assert.Equal(t, "", got.Original)
	assert.Equal(t, "", got.Corrected)
	assert.Equal(t, 0.0, got.Confidence)
	assert.False(t, got.Changed())

	got = n.Normalize("   \t ")
	assert.Equal(t, 0.0, got.Confidence)
	assert.False(t, got.Changed())
}

func TestNormalizeLeavesCleanInputVerbatim(t *testing.T) {
	n := newNormalizer(t)

	raw := "Show  contract 123456"
	got := n.Normalize(raw)
	assert.Equal(t, raw, got.Corrected)
	assert.Equal(t, raw, got.Original)
	assert.False(t, got.Changed())
	assert.Equal(t, 0.0, got.Confidence)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		corrected  string
		confidence float64
	}{
		{"spelling", "shwo contrct 123456", "show contract 123456", 2.0 / 3.0},
		{"keeps trailing punctuation", "contrct, please", "contract, please", 0.5},
		{"keeps leading punctuation", "(custmer 1234567)", "(customer 1234567)", 0.5},
		{"splits glued number", "contract123456 status", "contract 123456 status", 0.5},
		{"splits letter digit letter", "contract123status", "contract 123 status", 1.0},
		{"corrects inside glued token", "contrct123456", "contract 123456", 1.0},
		{"re-segments concatenated words", "paymentterms for 123456", "payment terms for 123456", 1.0 / 3.0},
		{"leaves part numbers", "price for AB12345", "price for AB12345", 0},
		{"leaves opportunity ids", "status of crf12345", "status of crf12345", 0},
		{"phrase correction", "leadtime of AB1234", "lead time of AB1234", 1.0 / 3.0},
	}

	n := newNormalizer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.input, got.Original)
			assert.Equal(t, tt.corrected, got.Corrected)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestNormalizeFoldsFullWidthDigits(t *testing.T) {
	n := newNormalizer(t)

	got := n.Normalize("contract １２３４５６")
	assert.Equal(t, "contract 123456", got.Corrected)
	assert.True(t, got.Changed())
}

func TestNormalizeDoesNotSegmentOrdinaryWords(t *testing.T) {
	n := newNormalizer(t)

	for _, raw := range []string{"show me something", "information please", "format"} {
		got := n.Normalize(raw)
		assert.Equal(t, raw, got.Corrected, raw)
	}
}

func TestLemma(t *testing.T) {
	n := newNormalizer(t)
	assert.Equal(t, "contract", n.Lemma("Contracts"))
	assert.Equal(t, "widget", n.Lemma("widget"))
}
