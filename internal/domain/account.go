package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account bucket.
type AccountType string

const (
	AccountAllowance AccountType = "allowance"
	AccountSavings   AccountType = "savings"
)

// DefaultAccountName is the name of the allowance account created on demand for
// quick entries and investment movements.
const DefaultAccountName = "Allowance"

// Account is a named bucket of money. It has no balance field: the balance is
// always derived from the ledger with Balance.
type Account struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks name and type.
func (a *Account) Validate() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return Invalid("name", "account name is required")
	}
	switch a.Type {
	case AccountAllowance, AccountSavings:
	default:
		return Invalid("type", "must be one of allowance, savings")
	}
	return nil
}

// AccountWithBalance pairs an account with its derived balance.
type AccountWithBalance struct {
	*Account
	Balance decimal.Decimal `json:"balance"`
}

// Balance sums the signed contribution of every transaction that references
// accountID. Transactions that do not reference the account contribute nothing.
func Balance(accountID string, txs []*Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			if tx.ToAccountID == accountID {
				balance = balance.Add(tx.Amount)
			}
		case KindExpense:
			if tx.FromAccountID == accountID {
				balance = balance.Sub(tx.Amount)
			}
		case KindTransfer:
			if tx.FromAccountID == accountID {
				balance = balance.Sub(tx.Amount)
			}
			if tx.ToAccountID == accountID {
				balance = balance.Add(tx.Amount)
			}
		}
	}
	return balance
}
