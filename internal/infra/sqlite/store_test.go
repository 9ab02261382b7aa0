package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "ledger.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ids(txs []*domain.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestListTransactions_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cet := time.FixedZone("CET", 3600)
	rows := []*domain.Transaction{
		{ID: "t1", UserID: "u1", Kind: domain.KindIncome, Amount: decimal.NewFromInt(1000), ToAccountID: "A", OccurredAt: base},
		{ID: "t2", UserID: "u1", Kind: domain.KindExpense, Amount: decimal.NewFromInt(300), FromAccountID: "A", OccurredAt: base.Add(time.Hour).In(cet)},
		{ID: "t3", UserID: "u1", Kind: domain.KindTransfer, Amount: decimal.NewFromInt(200), FromAccountID: "A", ToAccountID: "B", OccurredAt: base.Add(2 * time.Hour)},
		{ID: "t4", UserID: "u2", Kind: domain.KindIncome, Amount: decimal.NewFromInt(5), ToAccountID: "X", OccurredAt: base.Add(3 * time.Hour)},
	}
	for _, tx := range rows {
		require.NoError(t, s.InsertTransaction(ctx, tx))
	}

	tests := []struct {
		name   string
		filter store.TransactionFilter
		want   []string
	}{
		{"all newest first", store.TransactionFilter{}, []string{"t3", "t2", "t1"}},
		{"by kind", store.TransactionFilter{Kind: domain.KindExpense}, []string{"t2"}},
		{"by account either side", store.TransactionFilter{AccountID: "B"}, []string{"t3"}},
		{"from inclusive", store.TransactionFilter{From: base.Add(time.Hour)}, []string{"t3", "t2"}},
		{"to exclusive in another zone", store.TransactionFilter{To: base.Add(time.Hour).In(cet)}, []string{"t1"}},
		{"limit", store.TransactionFilter{Limit: 2}, []string{"t3", "t2"}},
		{"offset without limit", store.TransactionFilter{Offset: 2}, []string{"t1"}},
		{"limit and offset", store.TransactionFilter{Limit: 1, Offset: 1}, []string{"t2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, "u1", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTransactions_PreserveAmountAndMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertTransaction(ctx, &domain.Transaction{
		ID: "t1", UserID: "u1", Kind: domain.KindExpense, Amount: decimal.RequireFromString("0.10"),
		FromAccountID: "A", OccurredAt: base, Metadata: domain.QuickEntryTags([]string{"coffee", "work"}),
	}))
	require.NoError(t, s.InsertTransaction(ctx, &domain.Transaction{
		ID: "t2", UserID: "u1", Kind: domain.KindExpense, Amount: decimal.RequireFromString("1234567890.123456789"),
		FromAccountID: "A", OccurredAt: base.Add(-time.Hour),
	}))

	got, err := s.ListTransactions(ctx, "u1", store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0.1", got[0].Amount.String())
	assert.Equal(t, []string{"coffee", "work"}, got[0].Metadata.Tags())
	assert.Equal(t, "1234567890.123456789", got[1].Amount.String())
	assert.Equal(t, domain.MetadataNone, got[1].Metadata.Kind)
}

func TestAccounts_OwnershipAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: "a1", UserID: "u1", Name: "Allowance", Type: domain.AccountAllowance, CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: "a2", UserID: "u1", Name: "Rainy day", Type: domain.AccountSavings, CreatedAt: base.Add(time.Minute), UpdatedAt: base}))
	assert.Error(t, s.CreateAccount(ctx, &domain.Account{ID: "a1", UserID: "u1", Name: "dup", Type: domain.AccountSavings}))

	_, err := s.GetAccount(ctx, "u2", "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a, err := s.FindAccountByName(ctx, "u1", "Allowance")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, domain.AccountAllowance, a.Type)

	_, err = s.FindAccountByName(ctx, "u2", "Allowance")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.ListAccounts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ID)
}

func TestInvestments_LifecycleAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv, err := domain.NewInvestment("u1", "Fund", domain.InvestmentFund, decimal.NewFromInt(1000), civil.Date{Year: 2025, Month: 1, Day: 15}, base)
	require.NoError(t, err)
	inv.ID = "i1"
	require.NoError(t, s.CreateInvestment(ctx, inv))

	require.NoError(t, s.AppendSnapshot(ctx, &domain.ValueSnapshot{ID: "s2", InvestmentID: "i1", Value: decimal.NewFromInt(1200), RecordedAt: base.Add(time.Hour), CreatedAt: base}))
	require.NoError(t, s.AppendSnapshot(ctx, &domain.ValueSnapshot{ID: "s1", InvestmentID: "i1", Value: decimal.NewFromInt(1000), RecordedAt: base, CreatedAt: base}))
	assert.ErrorIs(t, s.AppendSnapshot(ctx, &domain.ValueSnapshot{ID: "s3", InvestmentID: "nope"}), domain.ErrNotFound)

	history, err := s.ListSnapshots(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "s1", history[0].ID)

	inv.CurrentValue = decimal.RequireFromString("1200.50")
	require.NoError(t, s.UpdateInvestment(ctx, inv))
	got, err := s.GetInvestment(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.True(t, got.CurrentValue.Equal(decimal.RequireFromString("1200.5")))
	assert.Equal(t, civil.Date{Year: 2025, Month: 1, Day: 15}, got.StartDate)

	foreign := *inv
	foreign.UserID = "u2"
	assert.ErrorIs(t, s.UpdateInvestment(ctx, &foreign), domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteInvestment(ctx, "u2", "i1"), domain.ErrNotFound)

	list, err := s.ListInvestments(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteInvestment(ctx, "u1", "i1"))
	_, err = s.GetInvestment(ctx, "u1", "i1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	history, err = s.ListSnapshots(ctx, "i1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
