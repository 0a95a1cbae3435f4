package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/specification"
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newSeeded() *ContractDataProvider {
	return NewSeededContractDataProvider(lexicon.MustDefault(), func() time.Time { return seedNow })
}

func TestRunFilteredQuery(t *testing.T) {
	p := newSeeded()
	ctx := context.Background()

	rows, err := p.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: "123456"},
	}, []string{"PAYMENT_TERMS"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"PAYMENT_TERMS": "Net 30"}}, rows)

	rows, err = p.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrCreatedBy, Operation: nlp.OpLike, Value: "alice"},
	}, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"AWARD_NUMBER": "345678"}, {"AWARD_NUMBER": "234567"}}, rows)

	rows, err = p.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrExpirationDate, Operation: nlp.OpBetween, Value: "2025-06-15|2025-07-15"},
	}, []string{"AWARD_NUMBER"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"AWARD_NUMBER": "123456"}}, rows)
}

func TestRunFilteredQueryCounts(t *testing.T) {
	p := newSeeded()

	rows, err := p.RunFilteredQuery(context.Background(), "FAILED_PARTS", nil, []string{"CONTRACT_NO", nlp.DisplayCount})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{
		{"CONTRACT_NO": "123456", "COUNT": 2},
		{"CONTRACT_NO": "345678", "COUNT": 1},
	}, rows)

	rows, err = p.RunFilteredQuery(context.Background(), "PARTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrInvoicePartNumber, Operation: nlp.OpEquals, Value: "NOPE"},
	}, []string{nlp.DisplayCount})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"COUNT": 0}}, rows)
}

func TestRunFilteredQueryRejectsForeignColumn(t *testing.T) {
	p := newSeeded()

	_, err := p.RunFilteredQuery(context.Background(), "PARTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: "123456"},
	}, nil)
	assert.True(t, errors.Is(err, specification.ErrUnknownColumn))

	_, err = p.RunFilteredQuery(context.Background(), "INVOICES", nil, nil)
	assert.True(t, errors.Is(err, contract.ErrUnknownTable))
}

func TestCreateContractAndChecklist(t *testing.T) {
	p := newSeeded()
	ctx := context.Background()

	_, err := p.CreateContract(ctx, map[string]string{"ACCOUNT_NUMBER": "9999999"})
	assert.True(t, errors.Is(err, contract.ErrAccountNotFound))

	res, err := p.CreateContract(ctx, map[string]string{
		"ACCOUNT_NUMBER": "1234567", "CONTRACT_NAME": "New", "TITLE": "T", "DESCRIPTION": "D", "COMMENTS": "", "IS_PRICELIST": "NO",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "200001", res.Identifier)

	rows, err := p.RunFilteredQuery(ctx, "CONTRACTS", []nlp.EntityFilter{
		{Attribute: nlp.AttrAwardNumber, Operation: nlp.OpEquals, Value: res.Identifier},
	}, []string{"CONTRACT_NAME", "CREATE_DATE"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]interface{}{{"CONTRACT_NAME": "New", "CREATE_DATE": "2025-06-15"}}, rows)

	cl, err := p.CreateChecklist(ctx, map[string]string{"AWARD_NUMBER": "000000"})
	require.NoError(t, err)
	assert.False(t, cl.Success)

	cl, err = p.CreateChecklist(ctx, map[string]string{"AWARD_NUMBER": res.Identifier, "EFFECTIVE_DATE": "07/01/25"})
	require.NoError(t, err)
	assert.True(t, cl.Success)
	require.Len(t, p.Checklists(), 1)
	assert.Equal(t, "07/01/25", p.Checklists()[0]["EFFECTIVE_DATE"])
}

func TestFindUsersByNamePattern(t *testing.T) {
	p := newSeeded()

	got, err := p.FindUsersByNamePattern(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Jones", "Alice Smith"}, got)

	got, _ = p.FindUsersByNamePattern(context.Background(), "vinod")
	assert.Equal(t, []string{"Vinod Kumar"}, got)

	got, _ = p.FindUsersByNamePattern(context.Background(), "nobody")
	assert.Empty(t, got)
}
