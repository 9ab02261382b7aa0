package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Amounts are stored as TEXT so SQLite's numeric affinity never turns them
// into floats. Timestamps are stored in UTC so that range filters compare
// consistently.

type accountModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"index:idx_accounts_user_name,priority:1;size:64;not null"`
	Name      string    `gorm:"index:idx_accounts_user_name,priority:2;size:128;not null"`
	Type      string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (accountModel) TableName() string { return "accounts" }

type transactionModel struct {
	ID            string          `gorm:"primaryKey;size:64"`
	UserID        string          `gorm:"index:idx_transactions_user_time,priority:1;size:64;not null"`
	Amount        decimal.Decimal `gorm:"type:text;not null"`
	Kind          string          `gorm:"size:16;not null"`
	FromAccountID string          `gorm:"index;size:64"`
	ToAccountID   string          `gorm:"index;size:64"`
	OccurredAt    time.Time       `gorm:"index:idx_transactions_user_time,priority:2;not null"`
	Category      string          `gorm:"size:128"`
	Description   string          `gorm:"size:512"`
	Metadata      string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"autoCreateTime:false;not null"`
}

func (transactionModel) TableName() string { return "transactions" }

type investmentModel struct {
	ID           string          `gorm:"primaryKey;size:64"`
	UserID       string          `gorm:"index;size:64;not null"`
	Name         string          `gorm:"size:128;not null"`
	Type         string          `gorm:"size:16;not null"`
	Principal    decimal.Decimal `gorm:"type:text;not null"`
	CurrentValue decimal.Decimal `gorm:"type:text;not null"`
	StartDate    string          `gorm:"size:10;not null"`
	Status       string          `gorm:"size:16;not null"`
	Notes        string          `gorm:"size:512"`
	CreatedAt    time.Time       `gorm:"autoCreateTime:false;not null"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime:false;not null"`
}

func (investmentModel) TableName() string { return "investments" }

type snapshotModel struct {
	ID           string          `gorm:"primaryKey;size:64"`
	InvestmentID string          `gorm:"index;size:64;not null"`
	Value        decimal.Decimal `gorm:"type:text;not null"`
	RecordedAt   time.Time       `gorm:"not null"`
	Notes        string          `gorm:"size:512"`
	CreatedAt    time.Time       `gorm:"autoCreateTime:false;not null"`
}

func (snapshotModel) TableName() string { return "investment_history" }

func fromAccount(a *domain.Account) *accountModel {
	return &accountModel{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Type:      string(a.Type),
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
}

func (m *accountModel) toDomain() *domain.Account {
	return &domain.Account{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Type:      domain.AccountType(m.Type),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func fromTransaction(tx *domain.Transaction) (*transactionModel, error) {
	m := &transactionModel{
		ID:            tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Kind:          string(tx.Kind),
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		OccurredAt:    tx.OccurredAt.UTC(),
		Category:      tx.Category,
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt.UTC(),
	}
	if tx.Metadata.Kind != domain.MetadataNone {
		raw, err := json.Marshal(tx.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		m.Metadata = string(raw)
	}
	return m, nil
}

func (m *transactionModel) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		Kind:          domain.TransactionKind(m.Kind),
		FromAccountID: m.FromAccountID,
		ToAccountID:   m.ToAccountID,
		OccurredAt:    m.OccurredAt,
		Category:      m.Category,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &tx.Metadata); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", m.ID, err)
		}
	}
	return tx, nil
}

func fromInvestment(inv *domain.Investment) *investmentModel {
	return &investmentModel{
		ID:           inv.ID,
		UserID:       inv.UserID,
		Name:         inv.Name,
		Type:         string(inv.Type),
		Principal:    inv.Principal,
		CurrentValue: inv.CurrentValue,
		StartDate:    inv.StartDate.String(),
		Status:       string(inv.Status),
		Notes:        inv.Notes,
		CreatedAt:    inv.CreatedAt.UTC(),
		UpdatedAt:    inv.UpdatedAt.UTC(),
	}
}

func (m *investmentModel) toDomain() (*domain.Investment, error) {
	start, err := civil.ParseDate(m.StartDate)
	if err != nil {
		return nil, fmt.Errorf("investment %s: start date: %w", m.ID, err)
	}
	return &domain.Investment{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         m.Name,
		Type:         domain.InvestmentType(m.Type),
		Principal:    m.Principal,
		CurrentValue: m.CurrentValue,
		StartDate:    start,
		Status:       domain.InvestmentStatus(m.Status),
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func fromSnapshot(s *domain.ValueSnapshot) *snapshotModel {
	return &snapshotModel{
		ID:           s.ID,
		InvestmentID: s.InvestmentID,
		Value:        s.Value,
		RecordedAt:   s.RecordedAt.UTC(),
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt.UTC(),
	}
}

func (m *snapshotModel) toDomain() *domain.ValueSnapshot {
	return &domain.ValueSnapshot{
		ID:           m.ID,
		InvestmentID: m.InvestmentID,
		Value:        m.Value,
		RecordedAt:   m.RecordedAt,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}
