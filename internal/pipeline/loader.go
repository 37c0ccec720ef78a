package pipeline

import (
	"fmt"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
)

// Source is the read side of the store that a snapshot is loaded from.
type Source interface {
	ListObligations() ([]model.Obligation, error)
	ListGoals() ([]model.Goal, error)
	ListCategories() ([]model.Category, error)
}

// LoadResult is an in-memory snapshot handed to the engines.
type LoadResult struct {
	Obligations   []model.Obligation
	Goals         []model.Goal
	Categories    []model.Category
	CategoryNames map[ulid.ULID]string
}

// Load reads a full snapshot from the store.
func Load(src Source) (*LoadResult, error) {
	obligations, err := src.ListObligations()
	if err != nil {
		return nil, fmt.Errorf("loading obligations: %w", err)
	}
	goals, err := src.ListGoals()
	if err != nil {
		return nil, fmt.Errorf("loading goals: %w", err)
	}
	cats, err := src.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	names := make(map[ulid.ULID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	return &LoadResult{
		Obligations:   obligations,
		Goals:         goals,
		Categories:    cats,
		CategoryNames: names,
	}, nil
}

// Summary aggregates the snapshot for the given day.
func (r *LoadResult) Summary(today model.Date, windowDays int) (model.SummaryStats, error) {
	return Aggregate(r.Obligations, r.Goals, today, windowDays)
}

// Snapshot is a loaded store aggregated for one day.
type Snapshot struct {
	Today      model.Date
	WindowDays int
	Stats      model.SummaryStats
	Due        []DueRow
	Categories []model.CategoryStats
	Goals      []GoalRow
	Data       *LoadResult
}

// BuildSnapshot loads the store and computes every view the dashboard shows.
func BuildSnapshot(src Source, today model.Date, windowDays int) (*Snapshot, error) {
	data, err := Load(src)
	if err != nil {
		return nil, err
	}

	stats, err := data.Summary(today, windowDays)
	if err != nil {
		return nil, err
	}
	due, err := AggregateDue(data.Obligations, data.CategoryNames, today, windowDays)
	if err != nil {
		return nil, err
	}
	cats, err := AggregateCategories(data.Obligations, data.CategoryNames)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Today:      today,
		WindowDays: windowDays,
		Stats:      stats,
		Due:        due,
		Categories: cats,
		Goals:      AggregateGoals(data.Goals, today),
		Data:       data,
	}, nil
}
