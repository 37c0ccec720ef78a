package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/recurring"

	"github.com/shopspring/decimal"
)

type fakeSource struct {
	obs   []model.Obligation
	goals []model.Goal
	err   error
}

func (f *fakeSource) ListObligations() ([]model.Obligation, error) { return f.obs, f.err }
func (f *fakeSource) ListGoals() ([]model.Goal, error)             { return f.goals, nil }
func (f *fakeSource) ListCategories() ([]model.Category, error)    { return nil, nil }

func obligation(name, amount, due string) model.Obligation {
	return model.Obligation{
		ID:          model.NewID(),
		Name:        name,
		Amount:      decimal.RequireFromString(amount),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: model.MustParseDate(due),
	}
}

// clock returns a Now func and a setter for it.
func clock(start time.Time) (func() time.Time, func(time.Time)) {
	now := start
	return func() time.Time { return now }, func(t time.Time) { now = t }
}

func newTestService(t *testing.T, src *fakeSource, now func() time.Time) *Service {
	t.Helper()
	return New(Config{
		WindowDays:   7,
		Interval:     10 * time.Second,
		EventsBuffer: 10,
		Now:          now,
		Source:       src,
	})
}

func TestPollEmitsSnapshotThenDueDelta(t *testing.T) {
	src := &fakeSource{obs: []model.Obligation{
		obligation("Rent", "1000", "2024-03-25"),
		obligation("Gym", "40", "2024-04-20"),
	}}
	now, set := clock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local))
	s := newTestService(t, src, now)

	s.pollOnce()
	status := s.snapshotStatus()
	if status.Summary.UpcomingCount != 1 || status.Summary.OverdueCount != 0 {
		t.Fatalf("summary = %+v", status.Summary)
	}
	if status.EventCount != 1 || s.events[0].Type != EventSnapshot {
		t.Fatalf("events = %+v", s.events)
	}

	// Same state: no new event.
	s.pollOnce()
	if got := s.snapshotStatus().EventCount; got != 1 {
		t.Fatalf("EventCount after unchanged poll = %d, want 1", got)
	}

	// Rent slips into overdue.
	set(time.Date(2024, 3, 26, 12, 0, 0, 0, time.Local))
	s.pollOnce()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != EventDueDelta {
		t.Fatalf("event type = %q, want %q", ev.Type, EventDueDelta)
	}
	if ev.Delta.OverdueCount != 1 || ev.Delta.UpcomingCount != -1 {
		t.Fatalf("delta = %+v", ev.Delta)
	}
	if len(ev.Delta.NewlyOverdue) != 1 || ev.Delta.NewlyOverdue[0] != "Rent" {
		t.Fatalf("NewlyOverdue = %v, want [Rent]", ev.Delta.NewlyOverdue)
	}
}

func TestPollErrorKeepsLastSnapshot(t *testing.T) {
	src := &fakeSource{obs: []model.Obligation{obligation("Rent", "1000", "2024-03-01")}}
	now, _ := clock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local))
	s := newTestService(t, src, now)

	s.pollOnce()
	src.err = errors.New("disk gone")
	s.pollOnce()

	status := s.snapshotStatus()
	if !strings.HasSuffix(status.LastError, "disk gone") {
		t.Fatalf("LastError = %q", status.LastError)
	}
	if status.PollCount != 2 || status.Summary.OverdueCount != 1 {
		t.Fatalf("status = %+v", status)
	}
}

func TestRunRejectsNegativeWindow(t *testing.T) {
	src := &fakeSource{}
	s := New(Config{
		WindowDays: -3,
		Interval:   10 * time.Second,
		Addr:       "127.0.0.1:0",
		Source:     src,
	})
	if s.cfg.WindowDays != -3 {
		t.Fatalf("WindowDays = %d, want -3 kept as given", s.cfg.WindowDays)
	}
	if err := s.Run(context.Background()); !errors.Is(err, recurring.ErrNegativeWindow) {
		t.Fatalf("Run err = %v, want ErrNegativeWindow", err)
	}
	if got := s.snapshotStatus().PollCount; got != 0 {
		t.Fatalf("PollCount = %d, want 0", got)
	}
}

func TestDiffSnapshots(t *testing.T) {
	due := model.MustParseDate("2024-03-01")
	prev := Snapshot{
		OverdueCount: 1,
		Overdue:      []DueItem{{ID: "a", Name: "Rent", DueDate: due}},
	}
	curr := Snapshot{
		OverdueCount:   2,
		GoalsCompleted: 1,
		Overdue: []DueItem{
			{ID: "a", Name: "Rent", DueDate: due},
			{ID: "b", Name: "Water", DueDate: due},
		},
	}

	delta := diffSnapshots(prev, curr)
	if delta.OverdueCount != 1 || delta.GoalsCompleted != 1 {
		t.Fatalf("delta = %+v", delta)
	}
	if len(delta.NewlyOverdue) != 1 || delta.NewlyOverdue[0] != "Water" {
		t.Fatalf("NewlyOverdue = %v, want [Water]", delta.NewlyOverdue)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should diff to zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	src := &fakeSource{obs: []model.Obligation{obligation("Rent", "1000", "2024-03-01")}}
	now, _ := clock(time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local))
	s := newTestService(t, src, now)
	s.pollOnce()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		return string(body)
	}

	if body := get("/healthz"); body != "ok\n" {
		t.Fatalf("/healthz = %q", body)
	}

	var status Status
	if err := json.Unmarshal([]byte(get("/v1/status")), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.Summary.OverdueCount != 1 || status.Summary.Overdue[0].Name != "Rent" {
		t.Fatalf("status summary = %+v", status.Summary)
	}
	if !status.Summary.OverdueAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("OverdueAmount = %s", status.Summary.OverdueAmount)
	}

	var events []Event
	if err := json.Unmarshal([]byte(get("/v1/events")), &events); err != nil {
		t.Fatalf("decoding events: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Fatalf("events = %+v", events)
	}

	metrics := get("/metrics")
	for _, want := range []string{
		"fundwise_obligations_overdue 1",
		"fundwise_obligations_overdue_amount 1000",
		`fundwise_daemon_polls_total{result="ok"} 1`,
	} {
		if !strings.Contains(metrics, want) {
			t.Fatalf("/metrics missing %q", want)
		}
	}
}
