package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"bcct-chatbot-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractPricelistFlag(t *testing.T) {
	m := NewContractMapper()

	mod := m.ToModel(&entity.Contract{AwardNumber: "100001", IsPricelist: true})
	assert.Equal(t, "YES", mod.IsPricelist)

	mod.IsPricelist = "NO"
	assert.False(t, m.ToEntity(mod).IsPricelist)

	assert.Nil(t, m.ToEntity(nil))
}

func TestChecklistExtraIsJSON(t *testing.T) {
	m := NewContractMapper()

	mod := m.ChecklistToModel(&entity.ContractChecklist{
		AwardNumber: "100001",
		Extra:       map[string]string{"NOTES": "rush"},
		CreatedAt:   time.Now(),
	})

	var extra map[string]string
	require.NoError(t, json.Unmarshal(mod.Extra, &extra))
	assert.Equal(t, "rush", extra["NOTES"])

	mod = m.ChecklistToModel(&entity.ContractChecklist{AwardNumber: "100001"})
	assert.Nil(t, mod.Extra)
}
