package bigquery

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRow(t *testing.T) {
	at := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		ID:          "t1",
		UserID:      "u1",
		Amount:      decimal.RequireFromString("1250.505"),
		Kind:        domain.KindIncome,
		ToAccountID: "a1",
		OccurredAt:  at,
		Category:    "Investment Return",
		Metadata:    domain.InvestmentLink("inv-1", domain.ActionCashOut, "partial"),
		CreatedAt:   at,
	}

	row, err := transactionRow(tx)
	require.NoError(t, err)
	assert.False(t, row.FromAccountID.Valid, "empty references are NULL")
	assert.True(t, row.Metadata.Valid)
	assert.Equal(t, "1250.505", row.Amount.FloatString(3))

	back, err := row.toDomain()
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(back.Amount))
	assert.Equal(t, tx.Metadata, back.Metadata)
	assert.Equal(t, "", back.FromAccountID)
	assert.Equal(t, "a1", back.ToAccountID)
}

func TestTransactionRow_NoMetadata(t *testing.T) {
	row, err := transactionRow(&domain.Transaction{ID: "t1", Amount: decimal.NewFromInt(5), Kind: domain.KindExpense})
	require.NoError(t, err)
	assert.False(t, row.Metadata.Valid)

	back, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.MetadataNone, back.Metadata.Kind)
}

func TestInvestmentRow(t *testing.T) {
	inv := &domain.Investment{
		ID:           "inv-1",
		UserID:       "u1",
		Name:         "Index fund",
		Type:         domain.InvestmentFund,
		Principal:    decimal.RequireFromString("333.333333333"),
		CurrentValue: decimal.RequireFromString("400"),
		StartDate:    civil.Date{Year: 2025, Month: time.January, Day: 15},
		Status:       domain.InvestmentActive,
	}
	back := investmentRow(inv).toDomain()
	assert.True(t, inv.Principal.Equal(back.Principal))
	assert.True(t, inv.CurrentValue.Equal(back.CurrentValue))
	assert.Equal(t, inv.StartDate, back.StartDate)
	assert.False(t, investmentRow(inv).Notes.Valid)
}

func TestFromNumeric(t *testing.T) {
	assert.True(t, fromNumeric(nil).IsZero())
	assert.Equal(t, "0.1", fromNumeric(decimal.RequireFromString("0.1").Rat()).String())
}

func paramNames(params []bigquery.QueryParameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func TestTransactionQuery(t *testing.T) {
	sql, params := transactionQuery("`p.d.transactions`", "u1", store.TransactionFilter{})
	assert.Equal(t, []string{"user_id"}, paramNames(params))
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "ORDER BY occurred_at DESC")

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	sql, params = transactionQuery("`p.d.transactions`", "u1", store.TransactionFilter{
		Kind:      domain.KindExpense,
		AccountID: "a1",
		From:      from,
		To:        from.AddDate(0, 1, 0),
		Limit:     20,
		Offset:    40,
	})
	assert.Equal(t, []string{"user_id", "transaction_type", "account_id", "from_ts", "to_ts", "limit", "offset"}, paramNames(params))
	assert.Contains(t, sql, "occurred_at < @to_ts")
	assert.True(t, strings.HasSuffix(sql, "LIMIT @limit OFFSET @offset"))
	assert.Equal(t, time.UTC, params[3].Value.(time.Time).Location())

	sql, _ = transactionQuery("`p.d.transactions`", "u1", store.TransactionFilter{Offset: 5})
	assert.Contains(t, sql, "OFFSET @offset")
}
