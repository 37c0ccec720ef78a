package portable

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/projection"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// FromModel builds a document from a stored dataset. History is nested under
// its owning obligation or goal.
func FromModel(ds model.Dataset, currency string) Document {
	doc := Document{Version: CurrentVersion, Currency: currency}

	names := make(map[ulid.ULID]string, len(ds.Categories))
	for _, c := range ds.Categories {
		names[c.ID] = c.Name
		doc.Categories = append(doc.Categories, Category{ID: c.ID.String(), Name: c.Name})
	}

	payments := make(map[ulid.ULID][]Payment)
	for _, p := range ds.Payments {
		payments[p.ObligationID] = append(payments[p.ObligationID], Payment{
			ID:      p.ID.String(),
			Amount:  p.Amount.String(),
			DueDate: p.DueDate.String(),
			PaidAt:  p.PaidAt.UTC(),
		})
	}
	for _, o := range ds.Obligations {
		out := Obligation{
			ID:        o.ID.String(),
			Name:      o.Name,
			Amount:    o.Amount.String(),
			Frequency: string(o.Frequency),
			NextDue:   o.NextDueDate.String(),
			CreatedAt: o.CreatedAt.UTC(),
			Payments:  payments[o.ID],
		}
		if o.CategoryID != nil {
			out.Category = names[*o.CategoryID]
		}
		doc.Obligations = append(doc.Obligations, out)
	}

	contributions := make(map[ulid.ULID][]Contribution)
	for _, c := range ds.Contributions {
		contributions[c.GoalID] = append(contributions[c.GoalID], Contribution{
			ID:        c.ID.String(),
			Amount:    c.Amount.String(),
			Note:      c.Note,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	for _, g := range ds.Goals {
		out := Goal{
			ID:            g.ID.String(),
			Name:          g.Name,
			Target:        g.TargetAmount.String(),
			Current:       g.CurrentAmount.String(),
			CreatedAt:     g.CreatedAt.UTC(),
			Contributions: contributions[g.ID],
		}
		if g.MonthlyAllocation != nil {
			out.MonthlyAllocation = g.MonthlyAllocation.String()
		}
		if g.TargetDate != nil {
			out.TargetDate = g.TargetDate.String()
		}
		if g.CompletedAt != nil {
			t := g.CompletedAt.UTC()
			out.CompletedAt = &t
		}
		doc.Goals = append(doc.Goals, out)
	}

	return doc
}

// ToModel converts a validated document into a dataset ready to import.
// Missing ids are generated; obligations naming an unknown category get a new
// one. existing maps lower-cased category names already in the store to their
// ids so imports reuse them.
func ToModel(doc Document, existing map[string]ulid.ULID, now time.Time) (model.Dataset, error) {
	var ds model.Dataset

	cats := make(map[string]ulid.ULID, len(existing))
	for name, id := range existing {
		cats[strings.ToLower(name)] = id
	}
	addCategory := func(id ulid.ULID, name string) ulid.ULID {
		key := strings.ToLower(name)
		if known, ok := cats[key]; ok {
			return known
		}
		cats[key] = id
		ds.Categories = append(ds.Categories, model.Category{ID: id, Name: name})
		return id
	}

	for _, c := range doc.Categories {
		id, err := idOrNew(c.ID)
		if err != nil {
			return ds, fmt.Errorf("category %q: %w", c.Name, err)
		}
		addCategory(id, c.Name)
	}

	for _, o := range doc.Obligations {
		m, err := toObligation(o, now)
		if err != nil {
			return ds, fmt.Errorf("obligation %q: %w", o.Name, err)
		}
		if o.Category != "" {
			cid := addCategory(model.NewID(), o.Category)
			m.CategoryID = &cid
		}
		ds.Obligations = append(ds.Obligations, m)

		for _, p := range o.Payments {
			pm, err := toPayment(m.ID, p)
			if err != nil {
				return ds, fmt.Errorf("obligation %q payment: %w", o.Name, err)
			}
			ds.Payments = append(ds.Payments, pm)
		}
	}

	for _, g := range doc.Goals {
		m, err := toGoal(g, now)
		if err != nil {
			return ds, fmt.Errorf("goal %q: %w", g.Name, err)
		}
		ds.Goals = append(ds.Goals, m)

		for _, c := range g.Contributions {
			cm, err := toContribution(m.ID, c)
			if err != nil {
				return ds, fmt.Errorf("goal %q contribution: %w", g.Name, err)
			}
			ds.Contributions = append(ds.Contributions, cm)
		}
	}

	return ds, nil
}

// ObligationToModel converts one validated record. The category is left for
// the caller to resolve.
func ObligationToModel(o Obligation, now time.Time) (model.Obligation, error) {
	return toObligation(o, now)
}

// GoalToModel converts one validated record.
func GoalToModel(g Goal, now time.Time) (model.Goal, error) {
	return toGoal(g, now)
}

func toObligation(o Obligation, now time.Time) (model.Obligation, error) {
	id, err := idOrNew(o.ID)
	if err != nil {
		return model.Obligation{}, err
	}
	amount, err := decimal.NewFromString(o.Amount)
	if err != nil {
		return model.Obligation{}, err
	}
	due, err := model.ParseDate(o.NextDue)
	if err != nil {
		return model.Obligation{}, err
	}
	created := o.CreatedAt
	if created.IsZero() {
		created = now
	}
	return model.Obligation{
		ID:          id,
		Name:        o.Name,
		Amount:      amount,
		Frequency:   model.Frequency(o.Frequency),
		NextDueDate: due,
		CreatedAt:   created,
		UpdatedAt:   now,
	}, nil
}

func toPayment(obligationID ulid.ULID, p Payment) (model.Payment, error) {
	id, err := idOrNew(p.ID)
	if err != nil {
		return model.Payment{}, err
	}
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return model.Payment{}, err
	}
	due, err := model.ParseDate(p.DueDate)
	if err != nil {
		return model.Payment{}, err
	}
	return model.Payment{ID: id, ObligationID: obligationID, Amount: amount, DueDate: due, PaidAt: p.PaidAt}, nil
}

func toGoal(g Goal, now time.Time) (model.Goal, error) {
	id, err := idOrNew(g.ID)
	if err != nil {
		return model.Goal{}, err
	}
	target, err := decimal.NewFromString(g.Target)
	if err != nil {
		return model.Goal{}, err
	}
	current := decimal.Zero
	if g.Current != "" {
		if current, err = decimal.NewFromString(g.Current); err != nil {
			return model.Goal{}, err
		}
	}

	created := g.CreatedAt
	if created.IsZero() {
		created = now
	}
	out := model.Goal{
		ID:            id,
		Name:          g.Name,
		TargetAmount:  target,
		CurrentAmount: current,
		CreatedAt:     created,
		UpdatedAt:     now,
	}
	if g.MonthlyAllocation != "" {
		a, err := decimal.NewFromString(g.MonthlyAllocation)
		if err != nil {
			return model.Goal{}, err
		}
		out.MonthlyAllocation = &a
	}
	if g.TargetDate != "" {
		d, err := model.ParseDate(g.TargetDate)
		if err != nil {
			return model.Goal{}, err
		}
		out.TargetDate = &d
	}

	out.IsCompleted = projection.IsComplete(out)
	switch {
	case g.CompletedAt != nil:
		t := *g.CompletedAt
		out.CompletedAt = &t
	case out.IsCompleted:
		t := now
		out.CompletedAt = &t
	}
	return out, nil
}

func toContribution(goalID ulid.ULID, c Contribution) (model.Contribution, error) {
	id, err := idOrNew(c.ID)
	if err != nil {
		return model.Contribution{}, err
	}
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return model.Contribution{}, err
	}
	return model.Contribution{ID: id, GoalID: goalID, Amount: amount, Note: c.Note, CreatedAt: c.CreatedAt}, nil
}

func idOrNew(s string) (ulid.ULID, error) {
	if s == "" {
		return model.NewID(), nil
	}
	return ulid.ParseStrict(strings.ToUpper(s))
}
