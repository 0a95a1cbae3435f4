package cache

import (
	"context"
	"testing"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/memory"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	filters := []nlp.EntityFilter{{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: "123456"}}

	a, err := cacheKey("", "CONTRACTS", filters, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	b, err := cacheKey("", "CONTRACTS", filters, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := cacheKey("1", "CONTRACTS", filters, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := cacheKey("", "PARTS", filters, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestQueryCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	data := memory.NewSeededContractDataProvider(lexicon.MustDefault(), now)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	qc := NewQueryCache(data, rdb, time.Minute, logger.NewNopLogger())
	rows, err := qc.RunFilteredQuery(context.Background(), "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: "123456"},
	}, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "123456", rows[0]["AWARD_NUMBER"])

	res, err := qc.CreateContract(context.Background(), map[string]string{
		"ACCOUNT_NUMBER": "1234567",
		"CONTRACT_NAME":  "Cached",
		"TITLE":          "Cached",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
}
