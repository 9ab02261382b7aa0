package analytics

import (
	"sort"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/shopspring/decimal"
)

// RecentLimit is how many entries the dashboard's recent list shows.
const RecentLimit = 20

// RecentMetadata carries the category and tags of a recent entry.
type RecentMetadata struct {
	CategoryName string   `json:"category_name"`
	Tags         []string `json:"tags"`
}

// RecentEntry is the shape the dashboard's recent list consumes.
type RecentEntry struct {
	UUID     string          `json:"uuid"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Metadata RecentMetadata  `json:"metadata"`
	LoggedAt time.Time       `json:"logged_at"`
}

// Direction maps a transaction kind to the dashboard's in/out/transfer vocabulary.
func Direction(kind domain.TransactionKind) string {
	switch kind {
	case domain.KindIncome:
		return "in"
	case domain.KindExpense:
		return "out"
	default:
		return "transfer"
	}
}

// ToRecent converts a transaction to a recent-list entry.
func ToRecent(tx *domain.Transaction) RecentEntry {
	tags := tx.Metadata.Tags()
	if tags == nil {
		tags = []string{}
	}
	return RecentEntry{
		UUID:     tx.ID,
		Amount:   tx.Amount,
		Type:     Direction(tx.Kind),
		Metadata: RecentMetadata{CategoryName: tx.CategoryLabel(), Tags: tags},
		LoggedAt: tx.OccurredAt,
	}
}

// Recent returns up to limit entries, newest first.
func Recent(txs []*domain.Transaction, limit int) []RecentEntry {
	sorted := append([]*domain.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]RecentEntry, 0, len(sorted))
	for _, tx := range sorted {
		out = append(out, ToRecent(tx))
	}
	return out
}
