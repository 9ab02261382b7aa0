package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"gorm.io/gorm"
)

// Store implements store.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// NewStore opens path, migrates the schema and returns a ready store.
func NewStore(path string, logMode bool) (*Store, error) {
	db, err := Open(path, logMode)
	if err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("NewStore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.db.WithContext(ctx).Create(fromAccount(account)).Error; err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	var m accountModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accountID, userID).
		First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", notFound(err, "account", accountID))
	}
	return m.toDomain(), nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	var models []accountModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	accounts := make([]*domain.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, models[i].toDomain())
	}
	return accounts, nil
}

func (s *Store) FindAccountByName(ctx context.Context, userID, name string) (*domain.Account, error) {
	var m accountModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Order("created_at, id").
		First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("FindAccountByName: %w", notFound(err, "account", name))
	}
	return m.toDomain(), nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	m, err := fromTransaction(tx)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// ListTransactions returns the user's matching rows, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, f store.TransactionFilter) ([]*domain.Transaction, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Kind != "" {
		q = q.Where("kind = ?", string(f.Kind))
	}
	if f.AccountID != "" {
		q = q.Where("(from_account_id = ? OR to_account_id = ?)", f.AccountID, f.AccountID)
	}
	if !f.From.IsZero() {
		q = q.Where("occurred_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("occurred_at < ?", f.To.UTC())
	}
	q = q.Order("occurred_at DESC, created_at DESC, id")

	switch {
	case f.Limit > 0:
		q = q.Limit(f.Limit).Offset(f.Offset)
	case f.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		q = q.Limit(-1).Offset(f.Offset)
	}

	var models []transactionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	txs := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		tx, err := models[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *Store) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	if err := s.db.WithContext(ctx).Create(fromInvestment(inv)).Error; err != nil {
		return fmt.Errorf("CreateInvestment: %w", err)
	}
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	var m investmentModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", investmentID, userID).
		First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("GetInvestment: %w", notFound(err, "investment", investmentID))
	}
	inv, err := m.toDomain()
	if err != nil {
		return nil, fmt.Errorf("GetInvestment: %w", err)
	}
	return inv, nil
}

// ListInvestments returns the user's positions, newest first.
func (s *Store) ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error) {
	var models []investmentModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ListInvestments: %w", err)
	}
	invs := make([]*domain.Investment, 0, len(models))
	for i := range models {
		inv, err := models[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListInvestments: %w", err)
		}
		invs = append(invs, inv)
	}
	return invs, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, inv *domain.Investment) error {
	m := fromInvestment(inv)
	res := s.db.WithContext(ctx).
		Model(&investmentModel{}).
		Where("id = ? AND user_id = ?", m.ID, m.UserID).
		Updates(map[string]any{
			"name":          m.Name,
			"type":          m.Type,
			"principal":     m.Principal,
			"current_value": m.CurrentValue,
			"status":        m.Status,
			"notes":         m.Notes,
			"updated_at":    m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("UpdateInvestment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("investment %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteInvestment removes the position and its history in one transaction.
func (s *Store) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", investmentID, userID).Delete(&investmentModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("investment %s: %w", investmentID, domain.ErrNotFound)
		}
		return tx.Where("investment_id = ?", investmentID).Delete(&snapshotModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("DeleteInvestment: %w", err)
	}
	return nil
}

func (s *Store) AppendSnapshot(ctx context.Context, snap *domain.ValueSnapshot) error {
	var count int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&investmentModel{}).Where("id = ?", snap.InvestmentID).Count(&count).Error; err != nil {
		return fmt.Errorf("AppendSnapshot: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("investment %s: %w", snap.InvestmentID, domain.ErrNotFound)
	}
	if err := db.Create(fromSnapshot(snap)).Error; err != nil {
		return fmt.Errorf("AppendSnapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the history of an investment, oldest first.
func (s *Store) ListSnapshots(ctx context.Context, investmentID string) ([]*domain.ValueSnapshot, error) {
	var models []snapshotModel
	err := s.db.WithContext(ctx).
		Where("investment_id = ?", investmentID).
		Order("recorded_at, created_at").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("ListSnapshots: %w", err)
	}
	snaps := make([]*domain.ValueSnapshot, 0, len(models))
	for i := range models {
		snaps = append(snaps, models[i].toDomain())
	}
	return snaps, nil
}
