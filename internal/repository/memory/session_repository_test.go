package memory

import (
	"testing"
	"time"

	"bcct-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	repo := NewSessionRepository(0, 0)

	_, found := repo.Get("s1")
	assert.False(t, found)

	repo.Save(store.NewConversationSession("s1", "u1", time.Now()))
	got, found := repo.Get("s1")
	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 1, repo.Count())

	repo.Delete("s1")
	_, found = repo.Get("s1")
	assert.False(t, found)
}

func TestSessionRepositoryExpires(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, 0)
	repo.Save(store.NewConversationSession("s1", "u1", time.Now()))

	assert.Eventually(t, func() bool {
		_, found := repo.Get("s1")
		return !found
	}, time.Second, 10*time.Millisecond)
}
