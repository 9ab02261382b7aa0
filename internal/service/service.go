// Package service implements the ledger operations behind the HTTP API. It owns
// validation, ownership checks and the follow-up writes that keep investments
// and the transaction log in step.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/google/uuid"
)

// Suggester proposes a category for a free-text description.
type Suggester interface {
	Suggest(ctx context.Context, description string, known []string) (string, error)
}

// ErrSuggestionsDisabled is returned by SuggestCategory when no Suggester is wired.
var ErrSuggestionsDisabled = errors.New("category suggestions are not configured")

// Service is the application layer over a store.Store.
type Service struct {
	store     store.Store
	now       func() time.Time
	newID     func() string
	location  *time.Location
	suggester Suggester
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how entity IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLocation sets the timezone used when the caller does not send one.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSuggester enables category suggestions.
func WithSuggester(sg Suggester) Option {
	return func(s *Service) { s.suggester = sg }
}

// New creates a Service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the default analytics timezone.
func (s *Service) Location() *time.Location {
	return s.location
}

// DefaultAccount returns the user's allowance account named
// domain.DefaultAccountName, creating it on first use.
func (s *Service) DefaultAccount(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.store.FindAccountByName(ctx, userID, domain.DefaultAccountName)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("DefaultAccount: finding account: %w", err)
	}

	now := s.now()
	account = &domain.Account{
		ID:        s.newID(),
		UserID:    userID,
		Name:      domain.DefaultAccountName,
		Type:      domain.AccountAllowance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("DefaultAccount: creating account: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("user_id", userID).Str("account_id", account.ID).Msg("Created default allowance account")
	return account, nil
}

// SuggestCategory asks the configured Suggester for a category, offering the
// categories the user has already used.
func (s *Service) SuggestCategory(ctx context.Context, userID, description string) (string, error) {
	if s.suggester == nil {
		return "", ErrSuggestionsDisabled
	}
	if description == "" {
		return "", domain.Invalid("description", "description is required")
	}

	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{Limit: 500})
	if err != nil {
		return "", fmt.Errorf("SuggestCategory: listing transactions: %w", err)
	}
	seen := make(map[string]bool)
	var known []string
	for _, tx := range txs {
		if tx.Category != "" && !seen[tx.Category] && !tx.Metadata.InvestmentLinked() {
			seen[tx.Category] = true
			known = append(known, tx.Category)
		}
	}

	category, err := s.suggester.Suggest(ctx, description, known)
	if err != nil {
		return "", fmt.Errorf("SuggestCategory: %w", err)
	}
	return category, nil
}
