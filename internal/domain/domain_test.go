package domain

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr string
	}{
		{"income ok", Transaction{UserID: "u", Amount: d("10"), Kind: KindIncome, ToAccountID: "a"}, ""},
		{"income with source", Transaction{UserID: "u", Amount: d("10"), Kind: KindIncome, ToAccountID: "a", FromAccountID: "b"}, "from_account_id"},
		{"income without destination", Transaction{UserID: "u", Amount: d("10"), Kind: KindIncome}, "to_account_id"},
		{"expense ok", Transaction{UserID: "u", Amount: d("10"), Kind: KindExpense, FromAccountID: "a"}, ""},
		{"expense with destination", Transaction{UserID: "u", Amount: d("10"), Kind: KindExpense, FromAccountID: "a", ToAccountID: "b"}, "to_account_id"},
		{"transfer ok", Transaction{UserID: "u", Amount: d("10"), Kind: KindTransfer, FromAccountID: "a", ToAccountID: "b"}, ""},
		{"transfer same account", Transaction{UserID: "u", Amount: d("10"), Kind: KindTransfer, FromAccountID: "a", ToAccountID: "a"}, "different"},
		{"zero amount", Transaction{UserID: "u", Amount: decimal.Zero, Kind: KindIncome, ToAccountID: "a"}, "amount"},
		{"negative amount", Transaction{UserID: "u", Amount: d("-1"), Kind: KindExpense, FromAccountID: "a"}, "amount"},
		{"unknown kind", Transaction{UserID: "u", Amount: d("1"), Kind: "refund"}, "transaction_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBalance_Scenario(t *testing.T) {
	txs := []*Transaction{
		{Kind: KindIncome, Amount: d("1000"), ToAccountID: "A"},
		{Kind: KindExpense, Amount: d("300"), FromAccountID: "A"},
		{Kind: KindTransfer, Amount: d("200"), FromAccountID: "A", ToAccountID: "B"},
	}

	assert.True(t, Balance("A", txs).Equal(d("500")), "balance(A) = %s", Balance("A", txs))
	assert.True(t, Balance("B", txs).Equal(d("200")), "balance(B) = %s", Balance("B", txs))
	assert.True(t, Balance("C", txs).IsZero())
}

func TestMetadata_JSONRoundTripShapes(t *testing.T) {
	raw, err := json.Marshal(InvestmentLink("inv-1", ActionCashOut, "partial"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"investment","investment_id":"inv-1","action":"cashout","notes":"partial"}`, string(raw))

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"quick_entry","tags":["coffee"]}`), &m))
	assert.Equal(t, MetadataQuickEntry, m.Kind)
	assert.Equal(t, []string{"coffee"}, m.Tags())
	assert.False(t, m.InvestmentLinked())

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.Equal(t, MetadataNone, m.Kind)

	err = json.Unmarshal([]byte(`{"kind":"mystery"}`), &m)
	assert.Error(t, err)
}

func TestTransaction_CountsAsCashFlow(t *testing.T) {
	assert.True(t, (&Transaction{Kind: KindIncome}).CountsAsCashFlow())
	assert.False(t, (&Transaction{Kind: KindTransfer}).CountsAsCashFlow())
	assert.False(t, (&Transaction{Kind: KindExpense, Metadata: InvestmentLink("i", ActionInvest, "")}).CountsAsCashFlow())
	assert.True(t, (&Transaction{Kind: KindExpense, Metadata: QuickEntryTags(nil)}).CountsAsCashFlow())
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestInvestment(t *testing.T, principal string) *Investment {
	t.Helper()
	inv, err := NewInvestment("user-1", "Index fund", InvestmentFund, d(principal), civil.Date{Year: 2025, Month: 1, Day: 2}, now)
	require.NoError(t, err)
	return inv
}

func TestInvestment_CreateAndMarkValue(t *testing.T) {
	inv := newTestInvestment(t, "1000")
	assert.True(t, inv.CurrentValue.Equal(d("1000")))
	assert.True(t, inv.Gain().IsZero())
	assert.Equal(t, InvestmentActive, inv.Status)

	require.NoError(t, inv.MarkValue(d("1200"), now))
	assert.True(t, inv.Gain().Equal(d("200")))
	assert.True(t, inv.PercentageChange().Equal(d("20")), "got %s", inv.PercentageChange())

	assert.Error(t, inv.MarkValue(d("-1"), now))
}

func TestNewInvestment_Rejects(t *testing.T) {
	start := civil.Date{Year: 2025, Month: 1, Day: 1}
	_, err := NewInvestment("u", " ", InvestmentFund, d("1"), start, now)
	assert.True(t, IsValidation(err))
	_, err = NewInvestment("u", "x", "bonds", d("1"), start, now)
	assert.True(t, IsValidation(err))
	_, err = NewInvestment("u", "x", InvestmentStock, decimal.Zero, start, now)
	assert.True(t, IsValidation(err))
	_, err = NewInvestment("u", "x", InvestmentStock, d("1"), civil.Date{}, now)
	assert.True(t, IsValidation(err))
}

func TestInvestment_CashOutScenario(t *testing.T) {
	inv := newTestInvestment(t, "1000")
	require.NoError(t, inv.MarkValue(d("1200"), now))

	res, err := inv.CashOut(d("600"), now)
	require.NoError(t, err)

	assert.True(t, inv.CurrentValue.Equal(d("600")))
	assert.True(t, inv.Principal.Equal(d("500")))
	assert.True(t, res.PrincipalReduced.Equal(d("500")))
	assert.False(t, res.Closed)
	assert.True(t, inv.CurrentValue.Div(inv.Principal).Equal(d("1.2")))
}

func TestInvestment_CashOutPreservesGainRatio(t *testing.T) {
	amounts := []string{"0.01", "1", "250", "333.33", "999.99", "1199.99"}
	for _, a := range amounts {
		t.Run(a, func(t *testing.T) {
			inv := newTestInvestment(t, "1000")
			require.NoError(t, inv.MarkValue(d("1200"), now))
			oldRatio := inv.Principal.Div(inv.CurrentValue)
			oldValue := inv.CurrentValue

			_, err := inv.CashOut(d(a), now)
			require.NoError(t, err)

			assert.True(t, inv.CurrentValue.Equal(oldValue.Sub(d(a))))
			newRatio := inv.Principal.Div(inv.CurrentValue)
			diff := newRatio.Sub(oldRatio).Abs()
			assert.True(t, diff.LessThan(d("0.000000001")), "ratio drift %s", diff)
			assert.False(t, inv.Principal.IsNegative())
		})
	}
}

func TestInvestment_CashOutFullAmountCloses(t *testing.T) {
	inv := newTestInvestment(t, "1000")
	require.NoError(t, inv.MarkValue(d("1200"), now))

	res, err := inv.CashOut(d("1200"), now)
	require.NoError(t, err)
	assert.True(t, res.Closed)
	assert.True(t, inv.CurrentValue.IsZero())
	assert.True(t, inv.Principal.IsZero())
	assert.Equal(t, InvestmentClosed, inv.Status)

	_, err = inv.CashOut(d("1"), now)
	assert.True(t, IsValidation(err))
	assert.Error(t, inv.MarkValue(d("10"), now))
}

func TestInvestment_CashOutRejectsWithoutStateChange(t *testing.T) {
	inv := newTestInvestment(t, "1000")
	require.NoError(t, inv.MarkValue(d("1200"), now))
	before := *inv

	_, err := inv.CashOut(d("1200.01"), now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds current value")
	assert.Equal(t, before, *inv)

	_, err = inv.CashOut(decimal.Zero, now)
	require.Error(t, err)
	assert.Equal(t, before, *inv)
}

func TestInvestment_RepeatedWithdrawalsAfterMarkdown(t *testing.T) {
	inv := newTestInvestment(t, "1000")
	require.NoError(t, inv.MarkValue(d("400"), now))

	for i := 0; i < 3; i++ {
		_, err := inv.CashOut(d("100"), now)
		require.NoError(t, err)
		assert.False(t, inv.Principal.IsNegative())
	}
	assert.True(t, inv.CurrentValue.Equal(d("100")))
	assert.True(t, inv.Principal.Equal(d("250")), "got %s", inv.Principal)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"12.50", "12.5", false},
		{"1,234.56", "1234.56", false},
		{" 1,000 ", "1000", false},
		{"", "", true},
		{"abc", "", true},
		{"0", "", true},
		{"-5", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}
