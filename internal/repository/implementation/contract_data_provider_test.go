package implementation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAwardNumber(t *testing.T) {
	tests := []struct {
		max  string
		want string
	}{
		{"", "100000"},
		{"100000", "100001"},
		{"123456", "123457"},
		{"000042", "100000"},
	}
	for _, tt := range tests {
		t.Run(tt.max, func(t *testing.T) {
			got, err := nextAwardNumber(tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := nextAwardNumber("ABC")
	assert.Error(t, err)
}
