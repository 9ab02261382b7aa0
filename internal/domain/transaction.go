package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-typed amount, ignoring thousands separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, Invalid("amount", "amount is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, Invalid("amount", "%q is not a number", raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, Invalid("amount", "must be positive")
	}
	return amount, nil
}

// TransactionKind is the direction of a money movement.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// ParseTransactionKind validates a kind coming from user input.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case KindIncome, KindExpense, KindTransfer:
		return k, nil
	}
	return "", Invalid("transaction_type", "must be one of income, expense, transfer")
}

// UncategorizedLabel is used wherever a transaction carries no category.
const UncategorizedLabel = "Uncategorized"

// Transaction is one immutable entry of the ledger. Rows are created once per
// user action and never edited afterwards.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          TransactionKind `json:"transaction_type"`
	FromAccountID string          `json:"from_account_id,omitempty"`
	ToAccountID   string          `json:"to_account_id,omitempty"`
	OccurredAt    time.Time       `json:"date"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	Metadata      Metadata        `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate enforces the account-reference shape of each kind.
func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return Invalid("user_id", "is required")
	}
	if !t.Amount.IsPositive() {
		return Invalid("amount", "must be positive")
	}
	switch t.Kind {
	case KindIncome:
		if t.ToAccountID == "" {
			return Invalid("to_account_id", "is required for income")
		}
		if t.FromAccountID != "" {
			return Invalid("from_account_id", "must be empty for income")
		}
	case KindExpense:
		if t.FromAccountID == "" {
			return Invalid("from_account_id", "is required for expense")
		}
		if t.ToAccountID != "" {
			return Invalid("to_account_id", "must be empty for expense")
		}
	case KindTransfer:
		if t.FromAccountID == "" {
			return Invalid("from_account_id", "is required for transfer")
		}
		if t.ToAccountID == "" {
			return Invalid("to_account_id", "is required for transfer")
		}
		if t.FromAccountID == t.ToAccountID {
			return Invalid("to_account_id", "source and destination accounts must be different")
		}
	default:
		return Invalid("transaction_type", "unknown kind %q", t.Kind)
	}
	return nil
}

// CategoryLabel returns the category, or UncategorizedLabel when blank.
func (t *Transaction) CategoryLabel() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

// CountsAsCashFlow reports whether the transaction contributes to inflow/outflow
// analytics. Transfers move money between the user's own accounts and investment
// rows mirror principal movements, so neither is discretionary cash flow.
func (t *Transaction) CountsAsCashFlow() bool {
	return t.Kind != KindTransfer && !t.Metadata.InvestmentLinked()
}

// MetadataKind tags which of the closed metadata shapes is populated.
type MetadataKind string

const (
	MetadataNone       MetadataKind = ""
	MetadataQuickEntry MetadataKind = "quick_entry"
	MetadataInvestment MetadataKind = "investment"
)

// InvestmentAction is what an investment-linked transaction mirrors.
type InvestmentAction string

const (
	ActionInvest  InvestmentAction = "invest"
	ActionCashOut InvestmentAction = "cashout"
)

// QuickEntryMetadata is attached to transactions logged through quick entry.
type QuickEntryMetadata struct {
	Tags []string `json:"tags"`
}

// InvestmentMetadata links a synthesized transaction to an investment.
type InvestmentMetadata struct {
	InvestmentID string           `json:"investment_id"`
	Action       InvestmentAction `json:"action"`
	Notes        string           `json:"notes,omitempty"`
}

// Metadata is a tagged union: at most one of QuickEntry and Investment is set,
// matching Kind.
type Metadata struct {
	Kind       MetadataKind
	QuickEntry *QuickEntryMetadata
	Investment *InvestmentMetadata
}

// QuickEntryTags builds quick-entry metadata.
func QuickEntryTags(tags []string) Metadata {
	if tags == nil {
		tags = []string{}
	}
	return Metadata{Kind: MetadataQuickEntry, QuickEntry: &QuickEntryMetadata{Tags: tags}}
}

// InvestmentLink builds investment metadata.
func InvestmentLink(investmentID string, action InvestmentAction, notes string) Metadata {
	return Metadata{
		Kind:       MetadataInvestment,
		Investment: &InvestmentMetadata{InvestmentID: investmentID, Action: action, Notes: notes},
	}
}

// InvestmentLinked reports whether the metadata ties the row to an investment.
func (m Metadata) InvestmentLinked() bool {
	return m.Kind == MetadataInvestment && m.Investment != nil && m.Investment.InvestmentID != ""
}

// Tags returns quick-entry tags, if any.
func (m Metadata) Tags() []string {
	if m.QuickEntry == nil {
		return nil
	}
	return m.QuickEntry.Tags
}

type metadataWire struct {
	Kind         MetadataKind     `json:"kind,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	InvestmentID string           `json:"investment_id,omitempty"`
	Action       InvestmentAction `json:"action,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}

// MarshalJSON flattens the union into {"kind": ..., ...}.
func (m Metadata) MarshalJSON() ([]byte, error) {
	w := metadataWire{Kind: m.Kind}
	switch m.Kind {
	case MetadataQuickEntry:
		if m.QuickEntry != nil {
			w.Tags = m.QuickEntry.Tags
		}
	case MetadataInvestment:
		if m.Investment != nil {
			w.InvestmentID = m.Investment.InvestmentID
			w.Action = m.Investment.Action
			w.Notes = m.Investment.Notes
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the flattened form. Unknown kinds are rejected.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metadata{}
		return nil
	}
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	switch w.Kind {
	case MetadataNone:
		*m = Metadata{}
	case MetadataQuickEntry:
		*m = QuickEntryTags(w.Tags)
	case MetadataInvestment:
		*m = InvestmentLink(w.InvestmentID, w.Action, w.Notes)
	default:
		return Invalid("metadata", "unknown kind %q", w.Kind)
	}
	return nil
}
