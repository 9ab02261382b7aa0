package analytics

import (
	"sort"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary is the inflow/outflow total of a period.
type Summary struct {
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// Point is one bucket of a time series.
type Point struct {
	Period  string          `json:"period"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// Net is inflow minus outflow, i.e. what was saved in the period.
func (p Point) Net() decimal.Decimal {
	return p.Inflow.Sub(p.Outflow)
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Flow selects income ("in") or expense ("out") rows for a breakdown.
type Flow string

const (
	FlowIn  Flow = "in"
	FlowOut Flow = "out"
)

// ParseFlow validates a flow; empty means FlowOut.
func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case "":
		return FlowOut, nil
	case FlowIn, FlowOut:
		return Flow(s), nil
	}
	return "", domain.Invalid("type", "invalid type. Must be 'in' or 'out'")
}

// Kind maps the flow to the transaction kind it aggregates.
func (f Flow) Kind() domain.TransactionKind {
	if f == FlowIn {
		return domain.KindIncome
	}
	return domain.KindExpense
}

// Summarize totals inflow and outflow over txs, skipping transfers and
// investment-linked rows.
func Summarize(txs []*domain.Transaction) Summary {
	s := Summary{Inflow: decimal.Zero, Outflow: decimal.Zero}
	for _, tx := range txs {
		if !tx.CountsAsCashFlow() {
			continue
		}
		switch tx.Kind {
		case domain.KindIncome:
			s.Inflow = s.Inflow.Add(tx.Amount)
		case domain.KindExpense:
			s.Outflow = s.Outflow.Add(tx.Amount)
		}
	}
	return s
}

// TimeSeries groups cash-flow transactions into buckets of view, keyed in loc.
// Buckets without transactions are not synthesized. Output is sorted by period.
func TimeSeries(txs []*domain.Transaction, view TimeView, loc *time.Location) []Point {
	buckets := make(map[string]*Point)
	for _, tx := range txs {
		if !tx.CountsAsCashFlow() {
			continue
		}
		key := BucketKey(tx.OccurredAt, view, loc)
		p, ok := buckets[key]
		if !ok {
			p = &Point{Period: key, Inflow: decimal.Zero, Outflow: decimal.Zero}
			buckets[key] = p
		}
		switch tx.Kind {
		case domain.KindIncome:
			p.Inflow = p.Inflow.Add(tx.Amount)
		case domain.KindExpense:
			p.Outflow = p.Outflow.Add(tx.Amount)
		}
	}

	points := make([]Point, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}

// FillGaps returns a dense copy of a sorted sparse series, inserting zero buckets
// between the first and last period.
func FillGaps(points []Point, view TimeView) ([]Point, error) {
	if len(points) < 2 {
		return append([]Point(nil), points...), nil
	}
	byKey := make(map[string]Point, len(points))
	for _, p := range points {
		byKey[p.Period] = p
	}

	last := points[len(points)-1].Period
	var dense []Point
	for key := points[0].Period; key <= last; {
		if p, ok := byKey[key]; ok {
			dense = append(dense, p)
		} else {
			dense = append(dense, Point{Period: key, Inflow: decimal.Zero, Outflow: decimal.Zero})
		}
		next, err := nextBucket(key, view)
		if err != nil {
			return nil, err
		}
		key = next
	}
	return dense, nil
}

var hundred = decimal.NewFromInt(100)

// ByCategory sums the rows of flow per category and reports each category's share
// of the total, largest first. With a zero total every percentage is 0.
func ByCategory(txs []*domain.Transaction, flow Flow) []CategoryShare {
	kind := flow.Kind()
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Kind != kind || tx.Metadata.InvestmentLinked() {
			continue
		}
		label := tx.CategoryLabel()
		totals[label] = totals[label].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	shares := make([]CategoryShare, 0, len(totals))
	for category, amount := range totals {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = amount.Div(total).Mul(hundred)
		}
		shares = append(shares, CategoryShare{Category: category, Amount: amount, Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Amount.Cmp(shares[j].Amount); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}
