package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const obligationColumns = `id, name, amount, frequency, next_due_date, category_id, created_at, updated_at`

// SaveObligation inserts or replaces an obligation.
func (s *Store) SaveObligation(o model.Obligation) error {
	return saveObligation(s.db, o)
}

func saveObligation(ex execer, o model.Obligation) error {
	_, err := ex.Exec(`INSERT INTO obligations (`+obligationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			frequency = excluded.frequency,
			next_due_date = excluded.next_due_date,
			category_id = excluded.category_id,
			updated_at = excluded.updated_at`,
		o.ID.String(), o.Name, o.Amount.String(), string(o.Frequency), o.NextDueDate.String(),
		nullID(o.CategoryID), formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving obligation %q: %w", o.Name, err)
	}
	return nil
}

// GetObligation returns a single obligation.
func (s *Store) GetObligation(id ulid.ULID) (model.Obligation, error) {
	row := s.db.QueryRow("SELECT "+obligationColumns+" FROM obligations WHERE id = ?", id.String())
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return o, fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	return o, err
}

// ListObligations returns every obligation in creation order.
func (s *Store) ListObligations() ([]model.Obligation, error) {
	rows, err := s.db.Query("SELECT " + obligationColumns + " FROM obligations ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteObligation removes an obligation and its payment history.
func (s *Store) DeleteObligation(id ulid.ULID) error {
	res, err := s.db.Exec("DELETE FROM obligations WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting obligation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordPayment stores the advanced obligation together with its payment
// record. The update only applies if the obligation is still due on
// expectedDue; otherwise ErrConflict is returned and nothing is written.
func (s *Store) RecordPayment(paid model.Obligation, p model.Payment, expectedDue model.Date) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE obligations SET next_due_date = ?, updated_at = ?
		WHERE id = ? AND next_due_date = ?`,
		paid.NextDueDate.String(), formatTime(paid.UpdatedAt), paid.ID.String(), expectedDue.String())
	if err != nil {
		return fmt.Errorf("advancing obligation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM obligations WHERE id = ?", paid.ID.String()).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("obligation %s: %w", paid.ID, ErrNotFound)
		}
		return fmt.Errorf("obligation %q no longer due on %s: %w", paid.Name, expectedDue, ErrConflict)
	}

	if err := insertPayment(tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPayment(ex execer, p model.Payment) error {
	if _, err := ex.Exec(`INSERT INTO payments (id, obligation_id, amount, due_date, paid_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.ObligationID.String(), p.Amount.String(), p.DueDate.String(), formatTime(p.PaidAt),
	); err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}
	return nil
}

// ListPayments returns the payment history of an obligation, newest first.
// A zero id lists payments across all obligations.
func (s *Store) ListPayments(obligationID ulid.ULID) ([]model.Payment, error) {
	query := "SELECT id, obligation_id, amount, due_date, paid_at FROM payments"
	var args []any
	if obligationID != (ulid.ULID{}) {
		query += " WHERE obligation_id = ?"
		args = append(args, obligationID.String())
	}
	query += " ORDER BY paid_at DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Payment
	for rows.Next() {
		var (
			p                      model.Payment
			id, oblID, amt, paidAt string
		)
		if err := rows.Scan(&id, &oblID, &amt, &p.DueDate, &paidAt); err != nil {
			return nil, err
		}
		if p.ID, err = ulid.Parse(id); err != nil {
			return nil, err
		}
		if p.ObligationID, err = ulid.Parse(oblID); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("payment %s amount: %w", id, err)
		}
		p.PaidAt = parseTime(paidAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObligation(sc scanner) (model.Obligation, error) {
	var (
		o                model.Obligation
		id, amt, freq    string
		category         sql.NullString
		created, updated string
	)
	if err := sc.Scan(&id, &o.Name, &amt, &freq, &o.NextDueDate, &category, &created, &updated); err != nil {
		return o, err
	}

	var err error
	if o.ID, err = ulid.Parse(id); err != nil {
		return o, fmt.Errorf("obligation id %q: %w", id, err)
	}
	if o.Amount, err = decimal.NewFromString(amt); err != nil {
		return o, fmt.Errorf("obligation %q amount: %w", o.Name, err)
	}
	o.Frequency = model.Frequency(freq)
	if category.Valid {
		cid, err := ulid.Parse(category.String)
		if err != nil {
			return o, fmt.Errorf("obligation %q category: %w", o.Name, err)
		}
		o.CategoryID = &cid
	}
	o.CreatedAt = parseTime(created)
	o.UpdatedAt = parseTime(updated)
	return o, nil
}
