package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, name, target_amount, current_amount, monthly_allocation, target_date,
	is_completed, completed_at, created_at, updated_at`

// SaveGoal inserts or replaces a goal.
func (s *Store) SaveGoal(g model.Goal) error {
	return saveGoal(s.db, g)
}

func saveGoal(ex execer, g model.Goal) error {
	if _, err := ex.Exec(`INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_amount = excluded.target_amount,
			current_amount = excluded.current_amount,
			monthly_allocation = excluded.monthly_allocation,
			target_date = excluded.target_date,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`, goalArgs(g)...); err != nil {
		return fmt.Errorf("saving goal %q: %w", g.Name, err)
	}
	return nil
}

// GetGoal returns a single goal.
func (s *Store) GetGoal(id ulid.ULID) (model.Goal, error) {
	g, err := scanGoal(s.db.QueryRow("SELECT "+goalColumns+" FROM goals WHERE id = ?", id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return g, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, err
}

// ListGoals returns every goal in creation order.
func (s *Store) ListGoals() ([]model.Goal, error) {
	rows, err := s.db.Query("SELECT " + goalColumns + " FROM goals ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGoal removes a goal and its contribution history.
func (s *Store) DeleteGoal(id ulid.ULID) error {
	res, err := s.db.Exec("DELETE FROM goals WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordContribution stores the updated goal and its contribution record in
// one transaction. The goal is only written if its stored balance still
// equals expectedCurrent.
func (s *Store) RecordContribution(g model.Goal, c model.Contribution, expectedCurrent decimal.Decimal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRow("SELECT current_amount FROM goals WHERE id = ?", g.ID.String()).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	cur, err := decimal.NewFromString(stored)
	if err != nil {
		return fmt.Errorf("goal %q balance: %w", g.Name, err)
	}
	if !cur.Equal(expectedCurrent) {
		return fmt.Errorf("goal %q balance is %s, expected %s: %w", g.Name, cur, expectedCurrent, ErrConflict)
	}

	if _, err := tx.Exec(`UPDATE goals SET current_amount = ?, is_completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		g.CurrentAmount.String(), g.IsCompleted, nullTime(g.CompletedAt), formatTime(g.UpdatedAt), g.ID.String(),
	); err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}

	if c.ID != (ulid.ULID{}) {
		if err := insertContribution(tx, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertContribution(ex execer, c model.Contribution) error {
	if _, err := ex.Exec(`INSERT INTO contributions (id, goal_id, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.GoalID.String(), c.Amount.String(), c.Note, formatTime(c.CreatedAt),
	); err != nil {
		return fmt.Errorf("recording contribution: %w", err)
	}
	return nil
}

// ListContributions returns a goal's contributions, newest first.
// A zero id lists contributions across all goals.
func (s *Store) ListContributions(goalID ulid.ULID) ([]model.Contribution, error) {
	query := "SELECT id, goal_id, amount, COALESCE(note, ''), created_at FROM contributions"
	var args []any
	if goalID != (ulid.ULID{}) {
		query += " WHERE goal_id = ?"
		args = append(args, goalID.String())
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Contribution
	for rows.Next() {
		var (
			c                        model.Contribution
			id, gid, amount, created string
		)
		if err := rows.Scan(&id, &gid, &amount, &c.Note, &created); err != nil {
			return nil, err
		}
		if c.ID, err = ulid.Parse(id); err != nil {
			return nil, err
		}
		if c.GoalID, err = ulid.Parse(gid); err != nil {
			return nil, err
		}
		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("contribution %s amount: %w", id, err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

func goalArgs(g model.Goal) []any {
	return []any{
		g.ID.String(), g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		nullDecimal(g.MonthlyAllocation), nullDate(g.TargetDate),
		g.IsCompleted, nullTime(g.CompletedAt), formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	}
}

func scanGoal(sc scanner) (model.Goal, error) {
	var (
		g                 model.Goal
		id, target, cur   string
		alloc, targetDate sql.NullString
		completedAt       sql.NullString
		created, updated  string
	)
	if err := sc.Scan(&id, &g.Name, &target, &cur, &alloc, &targetDate,
		&g.IsCompleted, &completedAt, &created, &updated); err != nil {
		return g, err
	}

	var err error
	if g.ID, err = ulid.Parse(id); err != nil {
		return g, fmt.Errorf("goal id %q: %w", id, err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return g, fmt.Errorf("goal %q target: %w", g.Name, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(cur); err != nil {
		return g, fmt.Errorf("goal %q balance: %w", g.Name, err)
	}
	if alloc.Valid {
		a, err := decimal.NewFromString(alloc.String)
		if err != nil {
			return g, fmt.Errorf("goal %q allocation: %w", g.Name, err)
		}
		g.MonthlyAllocation = &a
	}
	if targetDate.Valid {
		d, err := model.ParseDate(targetDate.String)
		if err != nil {
			return g, fmt.Errorf("goal %q target date: %w", g.Name, err)
		}
		g.TargetDate = &d
	}
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		g.CompletedAt = &t
	}
	g.CreatedAt = parseTime(created)
	g.UpdatedAt = parseTime(updated)
	return g, nil
}
