package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// InvestmentType is a free classification of a position.
type InvestmentType string

const (
	InvestmentStock   InvestmentType = "stock"
	InvestmentCrypto  InvestmentType = "crypto"
	InvestmentFund    InvestmentType = "fund"
	InvestmentSavings InvestmentType = "savings"
	InvestmentOther   InvestmentType = "other"
)

// ParseInvestmentType validates a type coming from user input.
func ParseInvestmentType(s string) (InvestmentType, error) {
	switch t := InvestmentType(s); t {
	case InvestmentStock, InvestmentCrypto, InvestmentFund, InvestmentSavings, InvestmentOther:
		return t, nil
	}
	return "", Invalid("type", "must be one of stock, crypto, fund, savings, other")
}

// InvestmentStatus is the lifecycle state of a position.
type InvestmentStatus string

const (
	InvestmentActive InvestmentStatus = "active"
	InvestmentClosed InvestmentStatus = "closed"
)

// Investment is a mutable position. Principal is the cost basis, CurrentValue the
// latest manual mark.
type Investment struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	Type         InvestmentType   `json:"type"`
	Principal    decimal.Decimal  `json:"principal"`
	CurrentValue decimal.Decimal  `json:"current_value"`
	StartDate    civil.Date       `json:"start_date"`
	Status       InvestmentStatus `json:"status"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewInvestment opens a position valued at its principal.
func NewInvestment(userID, name string, typ InvestmentType, principal decimal.Decimal, start civil.Date, now time.Time) (*Investment, error) {
	inv := &Investment{
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		Type:         typ,
		Principal:    principal,
		CurrentValue: principal,
		StartDate:    start,
		Status:       InvestmentActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if inv.Name == "" {
		return nil, Invalid("name", "name is required")
	}
	if _, err := ParseInvestmentType(string(typ)); err != nil {
		return nil, err
	}
	if !principal.IsPositive() {
		return nil, Invalid("principal", "principal must be greater than 0")
	}
	if !start.IsValid() {
		return nil, Invalid("start_date", "start date is required")
	}
	return inv, nil
}

// Gain is the unrealized gain, CurrentValue - Principal.
func (i *Investment) Gain() decimal.Decimal {
	return i.CurrentValue.Sub(i.Principal)
}

// PercentageChange is Gain as a percentage of Principal, or 0 without a principal.
func (i *Investment) PercentageChange() decimal.Decimal {
	if !i.Principal.IsPositive() {
		return decimal.Zero
	}
	return i.Gain().Div(i.Principal).Mul(decimal.NewFromInt(100))
}

// MarkValue records a new current value.
func (i *Investment) MarkValue(value decimal.Decimal, now time.Time) error {
	if value.IsNegative() {
		return Invalid("value", "value cannot be negative")
	}
	if i.Status == InvestmentClosed {
		return Invalid("value", "investment is closed")
	}
	i.CurrentValue = value
	i.UpdatedAt = now
	return nil
}

// CashOutResult describes the effect of a withdrawal.
type CashOutResult struct {
	Withdrawn        decimal.Decimal
	PrincipalReduced decimal.Decimal
	Closed           bool
}

// CashOut withdraws amount from the position. Principal shrinks by the same
// proportion the withdrawal represents of the current value, so the gain ratio
// CurrentValue/Principal is unchanged. Withdrawing the whole value closes the
// position. On error the investment is left untouched.
func (i *Investment) CashOut(amount decimal.Decimal, now time.Time) (CashOutResult, error) {
	if !amount.IsPositive() {
		return CashOutResult{}, Invalid("amount", "amount must be greater than 0")
	}
	if i.Status == InvestmentClosed {
		return CashOutResult{}, Invalid("amount", "investment is closed")
	}
	if amount.GreaterThan(i.CurrentValue) {
		return CashOutResult{}, Invalid("amount", "withdrawal amount exceeds current value")
	}

	newValue := i.CurrentValue.Sub(amount)
	newPrincipal := i.Principal.Mul(newValue).Div(i.CurrentValue)
	if newPrincipal.IsNegative() {
		return CashOutResult{}, ErrNegativePrincipal
	}

	res := CashOutResult{
		Withdrawn:        amount,
		PrincipalReduced: i.Principal.Sub(newPrincipal),
	}
	i.CurrentValue = newValue
	i.Principal = newPrincipal
	if newValue.IsZero() {
		i.Principal = decimal.Zero
		i.Status = InvestmentClosed
		res.Closed = true
	}
	i.UpdatedAt = now
	return res, nil
}

// ValueSnapshot is one append-only entry of an investment's value history.
type ValueSnapshot struct {
	ID           string          `json:"id"`
	InvestmentID string          `json:"investment_id"`
	Value        decimal.Decimal `json:"value"`
	RecordedAt   time.Time       `json:"recorded_at"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
