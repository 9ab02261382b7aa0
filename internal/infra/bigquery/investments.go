package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneyflow/internal/domain"
	"google.golang.org/api/iterator"
)

const investmentColumns = `investment_id, user_id, name, investment_type, principal, current_value,
			start_date, status, notes, created_ts, updated_ts`

// CreateInvestment inserts a position with DML.
func (s *Store) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	row := investmentRow(inv)
	_, err := s.exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (
			@investment_id, @user_id, @name, @investment_type, @principal, @current_value,
			@start_date, @status, @notes, @created_ts, @updated_ts
		)
	`, s.table(investmentsTable), investmentColumns), []bigquery.QueryParameter{
		{Name: "investment_id", Value: row.InvestmentID},
		{Name: "user_id", Value: row.UserID},
		{Name: "name", Value: row.Name},
		{Name: "investment_type", Value: row.InvestmentType},
		{Name: "principal", Value: row.Principal},
		{Name: "current_value", Value: row.CurrentValue},
		{Name: "start_date", Value: row.StartDate},
		{Name: "status", Value: row.Status},
		{Name: "notes", Value: row.Notes},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	})
	if err != nil {
		return fmt.Errorf("CreateInvestment: %w", err)
	}
	return nil
}

func (s *Store) queryInvestments(ctx context.Context, where string, params []bigquery.QueryParameter) ([]*domain.Investment, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY created_ts DESC, investment_id
	`, investmentColumns, s.table(investmentsTable), where))
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var invs []*domain.Investment
	for {
		var row InvestmentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		invs = append(invs, row.toDomain())
	}
	return invs, nil
}

// GetInvestment returns the position if it belongs to userID.
func (s *Store) GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	invs, err := s.queryInvestments(ctx, "user_id = @user_id AND investment_id = @investment_id", []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "investment_id", Value: investmentID},
	})
	if err != nil {
		return nil, fmt.Errorf("GetInvestment: %w", err)
	}
	if len(invs) == 0 {
		return nil, fmt.Errorf("investment %s: %w", investmentID, domain.ErrNotFound)
	}
	return invs[0], nil
}

// ListInvestments returns the user's positions, newest first.
func (s *Store) ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error) {
	invs, err := s.queryInvestments(ctx, "user_id = @user_id", []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("ListInvestments: %w", err)
	}
	return invs, nil
}

// UpdateInvestment writes back the mutable fields of a position.
func (s *Store) UpdateInvestment(ctx context.Context, inv *domain.Investment) error {
	row := investmentRow(inv)
	n, err := s.exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET name = @name,
			investment_type = @investment_type,
			principal = @principal,
			current_value = @current_value,
			status = @status,
			notes = @notes,
			updated_ts = @updated_ts
		WHERE investment_id = @investment_id AND user_id = @user_id
	`, s.table(investmentsTable)), []bigquery.QueryParameter{
		{Name: "name", Value: row.Name},
		{Name: "investment_type", Value: row.InvestmentType},
		{Name: "principal", Value: row.Principal},
		{Name: "current_value", Value: row.CurrentValue},
		{Name: "status", Value: row.Status},
		{Name: "notes", Value: row.Notes},
		{Name: "updated_ts", Value: row.UpdatedTS},
		{Name: "investment_id", Value: row.InvestmentID},
		{Name: "user_id", Value: row.UserID},
	})
	if err != nil {
		return fmt.Errorf("UpdateInvestment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("investment %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteInvestment removes the history first, then the position.
func (s *Store) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	if _, err := s.GetInvestment(ctx, userID, investmentID); err != nil {
		return err
	}

	params := []bigquery.QueryParameter{{Name: "investment_id", Value: investmentID}}
	if _, err := s.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s
		WHERE investment_id = @investment_id
	`, s.table(investmentHistoryTable)), params); err != nil {
		return fmt.Errorf("DeleteInvestment: deleting history: %w", err)
	}

	params = append(params, bigquery.QueryParameter{Name: "user_id", Value: userID})
	if _, err := s.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s
		WHERE investment_id = @investment_id AND user_id = @user_id
	`, s.table(investmentsTable)), params); err != nil {
		return fmt.Errorf("DeleteInvestment: deleting investment: %w", err)
	}
	return nil
}

// AppendSnapshot inserts a history row. The INSERT selects from investments so
// that a snapshot of an unknown investment affects no rows.
func (s *Store) AppendSnapshot(ctx context.Context, snap *domain.ValueSnapshot) error {
	row := snapshotRow(snap)
	n, err := s.exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (snapshot_id, investment_id, value, recorded_at, notes, created_ts)
		SELECT @snapshot_id, investment_id, @value, @recorded_at, @notes, @created_ts
		FROM %s
		WHERE investment_id = @investment_id
	`, s.table(investmentHistoryTable), s.table(investmentsTable)), []bigquery.QueryParameter{
		{Name: "snapshot_id", Value: row.SnapshotID},
		{Name: "value", Value: row.Value},
		{Name: "recorded_at", Value: row.RecordedAt},
		{Name: "notes", Value: row.Notes},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "investment_id", Value: row.InvestmentID},
	})
	if err != nil {
		return fmt.Errorf("AppendSnapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("investment %s: %w", snap.InvestmentID, domain.ErrNotFound)
	}
	return nil
}

// ListSnapshots returns the history of an investment, oldest first.
func (s *Store) ListSnapshots(ctx context.Context, investmentID string) ([]*domain.ValueSnapshot, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT snapshot_id, investment_id, value, recorded_at, notes, created_ts
		FROM %s
		WHERE investment_id = @investment_id
		ORDER BY recorded_at, created_ts
	`, s.table(investmentHistoryTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "investment_id", Value: investmentID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSnapshots: reading query: %w", err)
	}

	var snaps []*domain.ValueSnapshot
	for {
		var row SnapshotRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSnapshots: iterating: %w", err)
		}
		snaps = append(snaps, row.toDomain())
	}
	return snaps, nil
}
