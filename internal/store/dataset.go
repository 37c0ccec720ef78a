package store

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
)

// Export reads the whole database.
func (s *Store) Export() (model.Dataset, error) {
	var ds model.Dataset
	var err error
	if ds.Categories, err = s.ListCategories(); err != nil {
		return ds, err
	}
	if ds.Obligations, err = s.ListObligations(); err != nil {
		return ds, err
	}
	if ds.Payments, err = s.ListPayments(ulid.ULID{}); err != nil {
		return ds, err
	}
	if ds.Goals, err = s.ListGoals(); err != nil {
		return ds, err
	}
	if ds.Contributions, err = s.ListContributions(ulid.ULID{}); err != nil {
		return ds, err
	}
	return ds, nil
}

// ImportStats counts the records written by Import.
type ImportStats struct {
	Categories    int
	Obligations   int
	Payments      int
	Goals         int
	Contributions int
}

// Import upserts a dataset in a single transaction. Records with an existing
// id are replaced; history records with an existing id are skipped.
func (s *Store) Import(ds model.Dataset) (ImportStats, error) {
	var st ImportStats

	tx, err := s.db.Begin()
	if err != nil {
		return st, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range ds.Categories {
		if err := saveCategory(tx, c); err != nil {
			return st, err
		}
		st.Categories++
	}
	for _, o := range ds.Obligations {
		if err := saveObligation(tx, o); err != nil {
			return st, err
		}
		st.Obligations++
	}
	for _, g := range ds.Goals {
		if err := saveGoal(tx, g); err != nil {
			return st, err
		}
		st.Goals++
	}
	for _, p := range ds.Payments {
		res, err := tx.Exec(`INSERT OR IGNORE INTO payments (id, obligation_id, amount, due_date, paid_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID.String(), p.ObligationID.String(), p.Amount.String(), p.DueDate.String(), formatTime(p.PaidAt))
		if err != nil {
			return st, fmt.Errorf("importing payment: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			st.Payments++
		}
	}
	for _, c := range ds.Contributions {
		res, err := tx.Exec(`INSERT OR IGNORE INTO contributions (id, goal_id, amount, note, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID.String(), c.GoalID.String(), c.Amount.String(), c.Note, formatTime(c.CreatedAt))
		if err != nil {
			return st, fmt.Errorf("importing contribution: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			st.Contributions++
		}
	}

	return st, tx.Commit()
}
