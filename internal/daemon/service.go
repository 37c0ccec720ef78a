// Package daemon provides the long-running reminder service. It polls the
// store, tracks what is overdue or coming up, and serves the state over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"
	"github.com/theirongolddev/fundwise/internal/pipeline"
	"github.com/theirongolddev/fundwise/internal/recurring"
	"github.com/theirongolddev/fundwise/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDueDelta = "due_delta"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath       string
	WindowDays   int
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *zap.Logger
	Now          func() time.Time

	// Source overrides the store opened from DBPath.
	Source pipeline.Source
}

// DueItem is one overdue or upcoming obligation.
type DueItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   model.Date      `json:"due_date"`
	DaysUntil int             `json:"days_until"`
}

// Snapshot is the reminder state for one poll.
type Snapshot struct {
	At             time.Time       `json:"at"`
	Today          model.Date      `json:"today"`
	WindowDays     int             `json:"window_days"`
	Obligations    int             `json:"obligations"`
	OverdueCount   int             `json:"overdue_count"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	UpcomingCount  int             `json:"upcoming_count"`
	UpcomingAmount decimal.Decimal `json:"upcoming_amount"`
	MonthlyTotal   decimal.Decimal `json:"monthly_total"`
	Goals          int             `json:"goals"`
	GoalsCompleted int             `json:"goals_completed"`
	SavedPercent   float64         `json:"saved_percent"`
	Overdue        []DueItem       `json:"overdue"`
	Upcoming       []DueItem       `json:"upcoming"`
}

// Delta captures what changed between polls.
type Delta struct {
	OverdueCount   int      `json:"overdue_count"`
	UpcomingCount  int      `json:"upcoming_count"`
	GoalsCompleted int      `json:"goals_completed"`
	NewlyOverdue   []string `json:"newly_overdue,omitempty"`
	NewlyUpcoming  []string `json:"newly_upcoming,omitempty"`
}

func (d Delta) isZero() bool {
	return d.OverdueCount == 0 &&
		d.UpcomingCount == 0 &&
		d.GoalsCompleted == 0 &&
		len(d.NewlyOverdue) == 0 &&
		len(d.NewlyUpcoming) == 0
}

// Event is emitted whenever the reminder state changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path,omitempty"`
	WindowDays      int       `json:"window_days"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     *zap.Logger
	src     pipeline.Source
	reg     *prometheus.Registry
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.Named("daemon"),
		src:       cfg.Source,
		reg:       reg,
		metrics:   newMetrics(reg),
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled. A negative
// window fails with recurring.ErrNegativeWindow before anything starts.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.WindowDays < 0 {
		return recurring.ErrNegativeWindow
	}
	if s.src == nil {
		st, err := store.Open(s.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer func() { _ = st.Close() }()
		s.src = st
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening",
		zap.String("addr", s.cfg.Addr),
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("window_days", s.cfg.WindowDays))

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce() {
	start := time.Now()
	now := s.cfg.Now()
	snap, err := s.load(now)
	s.metrics.pollDuration.Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.metrics.polls.WithLabelValues("error").Inc()
		s.log.Error("poll failed", zap.Error(err))
		return
	}
	s.metrics.polls.WithLabelValues("ok").Inc()
	s.metrics.observe(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventDueDelta, Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.log.Info("state changed",
			zap.String("event", ev.Type),
			zap.Int("overdue", snap.OverdueCount),
			zap.Int("upcoming", snap.UpcomingCount),
			zap.Strings("newly_overdue", ev.Delta.NewlyOverdue))
		s.publishEvent(ev)
	}
}

func (s *Service) load(now time.Time) (Snapshot, error) {
	today := model.Today(now)
	ps, err := pipeline.BuildSnapshot(s.src, today, s.cfg.WindowDays)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotFrom(ps, now), nil
}

func snapshotFrom(ps *pipeline.Snapshot, at time.Time) Snapshot {
	stats := ps.Stats
	snap := Snapshot{
		At:             at,
		Today:          ps.Today,
		WindowDays:     ps.WindowDays,
		Obligations:    stats.Obligations,
		OverdueCount:   stats.OverdueCount,
		OverdueAmount:  stats.OverdueAmount,
		UpcomingCount:  stats.UpcomingCount,
		UpcomingAmount: stats.UpcomingAmount,
		MonthlyTotal:   stats.MonthlyTotal,
		Goals:          stats.Goals,
		GoalsCompleted: stats.GoalsCompleted,
		SavedPercent:   stats.SavedPercent,
		Overdue:        []DueItem{},
		Upcoming:       []DueItem{},
	}
	for _, row := range ps.Due {
		item := DueItem{
			ID:        row.Obligation.ID.String(),
			Name:      row.Obligation.Name,
			Amount:    row.Obligation.Amount,
			DueDate:   row.Obligation.NextDueDate,
			DaysUntil: row.DaysUntil,
		}
		switch row.Status {
		case recurring.StatusOverdue:
			snap.Overdue = append(snap.Overdue, item)
		case recurring.StatusUpcoming:
			snap.Upcoming = append(snap.Upcoming, item)
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		OverdueCount:   curr.OverdueCount - prev.OverdueCount,
		UpcomingCount:  curr.UpcomingCount - prev.UpcomingCount,
		GoalsCompleted: curr.GoalsCompleted - prev.GoalsCompleted,
		NewlyOverdue:   newItems(prev.Overdue, curr.Overdue),
		NewlyUpcoming:  newItems(prev.Upcoming, curr.Upcoming),
	}
}

// newItems returns the names of items in curr that were not in prev, keyed by
// id and due date so a paid-and-due-again bill counts as new.
func newItems(prev, curr []DueItem) []string {
	type key struct {
		id  string
		due model.Date
	}
	seen := make(map[key]struct{}, len(prev))
	for _, it := range prev {
		seen[key{it.ID, it.DueDate}] = struct{}{}
	}
	var out []string
	for _, it := range curr {
		if _, ok := seen[key{it.ID, it.DueDate}]; !ok {
			out = append(out, it.Name)
		}
	}
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = slices.Clone(s.events[len(s.events)-s.cfg.EventsBuffer:])
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		WindowDays:      s.cfg.WindowDays,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := slices.Clone(s.events)
	s.mu.RUnlock()
	if events == nil {
		events = []Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
