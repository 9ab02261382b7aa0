package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of BigQuery NUMERIC.
const numericScale = 9

type AccountRow struct {
	AccountID   string    `bigquery:"account_id"`   // REQUIRED
	UserID      string    `bigquery:"user_id"`      // REQUIRED
	Name        string    `bigquery:"name"`         // REQUIRED
	AccountType string    `bigquery:"account_type"` // REQUIRED
	CreatedTS   time.Time `bigquery:"created_ts"`   // REQUIRED
	UpdatedTS   time.Time `bigquery:"updated_ts"`   // REQUIRED
}

type TransactionRow struct {
	TransactionID   string    `bigquery:"transaction_id"`   // REQUIRED
	UserID          string    `bigquery:"user_id"`          // REQUIRED
	Amount          *big.Rat  `bigquery:"amount"`           // REQUIRED NUMERIC
	TransactionType string    `bigquery:"transaction_type"` // REQUIRED
	OccurredAt      time.Time `bigquery:"occurred_at"`      // REQUIRED

	FromAccountID bigquery.NullString `bigquery:"from_account_id"` // NULLABLE
	ToAccountID   bigquery.NullString `bigquery:"to_account_id"`   // NULLABLE
	Category      bigquery.NullString `bigquery:"category"`        // NULLABLE
	Description   bigquery.NullString `bigquery:"description"`     // NULLABLE
	Metadata      bigquery.NullJSON   `bigquery:"metadata"`        // NULLABLE JSON

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

type InvestmentRow struct {
	InvestmentID   string              `bigquery:"investment_id"`   // REQUIRED
	UserID         string              `bigquery:"user_id"`         // REQUIRED
	Name           string              `bigquery:"name"`            // REQUIRED
	InvestmentType string              `bigquery:"investment_type"` // REQUIRED
	Principal      *big.Rat            `bigquery:"principal"`       // REQUIRED NUMERIC
	CurrentValue   *big.Rat            `bigquery:"current_value"`   // REQUIRED NUMERIC
	StartDate      civil.Date          `bigquery:"start_date"`      // REQUIRED DATE
	Status         string              `bigquery:"status"`          // REQUIRED
	Notes          bigquery.NullString `bigquery:"notes"`           // NULLABLE
	CreatedTS      time.Time           `bigquery:"created_ts"`      // REQUIRED
	UpdatedTS      time.Time           `bigquery:"updated_ts"`      // REQUIRED
}

type SnapshotRow struct {
	SnapshotID   string              `bigquery:"snapshot_id"`   // REQUIRED
	InvestmentID string              `bigquery:"investment_id"` // REQUIRED
	Value        *big.Rat            `bigquery:"value"`         // REQUIRED NUMERIC
	RecordedAt   time.Time           `bigquery:"recorded_at"`   // REQUIRED
	Notes        bigquery.NullString `bigquery:"notes"`         // NULLABLE
	CreatedTS    time.Time           `bigquery:"created_ts"`    // REQUIRED
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func fromNumeric(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.RequireFromString(r.FloatString(numericScale))
}

func accountRow(a *domain.Account) *AccountRow {
	return &AccountRow{
		AccountID:   a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		AccountType: string(a.Type),
		CreatedTS:   a.CreatedAt,
		UpdatedTS:   a.UpdatedAt,
	}
}

func (r *AccountRow) toDomain() *domain.Account {
	return &domain.Account{
		ID:        r.AccountID,
		UserID:    r.UserID,
		Name:      r.Name,
		Type:      domain.AccountType(r.AccountType),
		CreatedAt: r.CreatedTS,
		UpdatedAt: r.UpdatedTS,
	}
}

func transactionRow(tx *domain.Transaction) (*TransactionRow, error) {
	row := &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		Amount:          tx.Amount.Rat(),
		TransactionType: string(tx.Kind),
		OccurredAt:      tx.OccurredAt,
		FromAccountID:   nullString(tx.FromAccountID),
		ToAccountID:     nullString(tx.ToAccountID),
		Category:        nullString(tx.Category),
		Description:     nullString(tx.Description),
		CreatedTS:       tx.CreatedAt,
	}
	if tx.Metadata.Kind != domain.MetadataNone {
		raw, err := json.Marshal(tx.Metadata)
		if err != nil {
			return nil, fmt.Errorf("transactionRow: encoding metadata: %w", err)
		}
		row.Metadata = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}

func (r *TransactionRow) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:            r.TransactionID,
		UserID:        r.UserID,
		Amount:        fromNumeric(r.Amount),
		Kind:          domain.TransactionKind(r.TransactionType),
		FromAccountID: r.FromAccountID.StringVal,
		ToAccountID:   r.ToAccountID.StringVal,
		OccurredAt:    r.OccurredAt,
		Category:      r.Category.StringVal,
		Description:   r.Description.StringVal,
		CreatedAt:     r.CreatedTS,
	}
	if r.Metadata.Valid {
		if err := json.Unmarshal([]byte(r.Metadata.JSONVal), &tx.Metadata); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", r.TransactionID, err)
		}
	}
	return tx, nil
}

func investmentRow(inv *domain.Investment) *InvestmentRow {
	return &InvestmentRow{
		InvestmentID:   inv.ID,
		UserID:         inv.UserID,
		Name:           inv.Name,
		InvestmentType: string(inv.Type),
		Principal:      inv.Principal.Rat(),
		CurrentValue:   inv.CurrentValue.Rat(),
		StartDate:      inv.StartDate,
		Status:         string(inv.Status),
		Notes:          nullString(inv.Notes),
		CreatedTS:      inv.CreatedAt,
		UpdatedTS:      inv.UpdatedAt,
	}
}

func (r *InvestmentRow) toDomain() *domain.Investment {
	return &domain.Investment{
		ID:           r.InvestmentID,
		UserID:       r.UserID,
		Name:         r.Name,
		Type:         domain.InvestmentType(r.InvestmentType),
		Principal:    fromNumeric(r.Principal),
		CurrentValue: fromNumeric(r.CurrentValue),
		StartDate:    r.StartDate,
		Status:       domain.InvestmentStatus(r.Status),
		Notes:        r.Notes.StringVal,
		CreatedAt:    r.CreatedTS,
		UpdatedAt:    r.UpdatedTS,
	}
}

func snapshotRow(s *domain.ValueSnapshot) *SnapshotRow {
	return &SnapshotRow{
		SnapshotID:   s.ID,
		InvestmentID: s.InvestmentID,
		Value:        s.Value.Rat(),
		RecordedAt:   s.RecordedAt,
		Notes:        nullString(s.Notes),
		CreatedTS:    s.CreatedAt,
	}
}

func (r *SnapshotRow) toDomain() *domain.ValueSnapshot {
	return &domain.ValueSnapshot{
		ID:           r.SnapshotID,
		InvestmentID: r.InvestmentID,
		Value:        fromNumeric(r.Value),
		RecordedAt:   r.RecordedAt,
		Notes:        r.Notes.StringVal,
		CreatedAt:    r.CreatedTS,
	}
}
