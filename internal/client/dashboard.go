package client

import (
	"context"
	"time"

	"github.com/dvloznov/moneyflow/internal/analytics"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/google/uuid"
)

// Cache keys of the dashboard queries.
var (
	TodayKey  = NewKey[analytics.Summary]("todayCashFlow")
	RecentKey = NewKey[[]analytics.RecentEntry]("recentTransactions")
)

// Dashboard is the cached view behind the quick-entry screen.
type Dashboard struct {
	api   *Client
	cache *Cache
	now   func() time.Time
}

func NewDashboard(api *Client, cache *Cache) *Dashboard {
	return &Dashboard{api: api, cache: cache, now: time.Now}
}

func (d *Dashboard) Today(ctx context.Context) (analytics.Summary, error) {
	return Fetch(ctx, d.cache, TodayKey, d.api.Today)
}

func (d *Dashboard) Recent(ctx context.Context) ([]analytics.RecentEntry, error) {
	return Fetch(ctx, d.cache, RecentKey, d.api.Recent)
}

// SubmitQuickEntry shows the entry in the cached summary and recent list
// before the server confirms it. A failed request restores the previous
// cache state. Either way both queries are refetched afterwards so the
// cache ends up on server truth.
func (d *Dashboard) SubmitQuickEntry(ctx context.Context, req QuickEntryRequest) (*domain.Transaction, error) {
	snap := d.cache.Snapshot(TodayKey, RecentKey)
	d.applyOptimistic(req)

	tx, err := d.api.QuickEntry(ctx, req)
	if err != nil {
		d.cache.Restore(snap)
	}

	d.refetch(ctx)
	return tx, err
}

func (d *Dashboard) applyOptimistic(req QuickEntryRequest) {
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		// The server will reject it; nothing to show.
		return
	}

	direction := "out"
	if req.Type == "cash_in" {
		direction = "in"
	}

	if summary, ok := Get(d.cache, TodayKey); ok {
		if direction == "in" {
			summary.Inflow = summary.Inflow.Add(amount)
		} else {
			summary.Outflow = summary.Outflow.Add(amount)
		}
		Set(d.cache, TodayKey, summary)
	}

	if recent, ok := Get(d.cache, RecentKey); ok {
		tags := req.SelectedTags
		if tags == nil {
			tags = []string{}
		}
		category := req.Category
		if category == "" {
			category = domain.UncategorizedLabel
		}
		entry := analytics.RecentEntry{
			UUID:     uuid.NewString(),
			Amount:   amount,
			Type:     direction,
			Metadata: analytics.RecentMetadata{CategoryName: category, Tags: tags},
			LoggedAt: d.now(),
		}
		patched := make([]analytics.RecentEntry, 0, len(recent)+1)
		patched = append(patched, entry)
		patched = append(patched, recent...)
		if len(patched) > analytics.RecentLimit {
			patched = patched[:analytics.RecentLimit]
		}
		Set(d.cache, RecentKey, patched)
	}
}

// refetch reloads both dashboard queries. A failed reload keeps the current
// value, marked stale, so the next read tries again.
func (d *Dashboard) refetch(ctx context.Context) {
	log := logger.FromContext(ctx)
	d.cache.Invalidate(TodayKey, RecentKey)
	if _, err := d.Today(ctx); err != nil {
		log.Warn().Err(err).Msg("Refetching today summary failed")
	}
	if _, err := d.Recent(ctx); err != nil {
		log.Warn().Err(err).Msg("Refetching recent entries failed")
	}
}
