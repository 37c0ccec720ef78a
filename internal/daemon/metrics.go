package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered per service so tests can run several services.
type metrics struct {
	overdue        prometheus.Gauge
	overdueAmount  prometheus.Gauge
	upcoming       prometheus.Gauge
	upcomingAmount prometheus.Gauge
	monthlyTotal   prometheus.Gauge
	goalsCompleted prometheus.Gauge
	savedPercent   prometheus.Gauge
	polls          *prometheus.CounterVec
	pollDuration   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		overdue: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_obligations_overdue",
			Help: "Obligations whose next due date is before today",
		}),
		overdueAmount: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_obligations_overdue_amount",
			Help: "Sum of overdue obligation amounts",
		}),
		upcoming: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_obligations_upcoming",
			Help: "Obligations due within the upcoming window",
		}),
		upcomingAmount: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_obligations_upcoming_amount",
			Help: "Sum of upcoming obligation amounts",
		}),
		monthlyTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_obligations_monthly_total",
			Help: "Monthly-equivalent total of all obligations",
		}),
		goalsCompleted: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_goals_completed",
			Help: "Savings goals that reached their target",
		}),
		savedPercent: f.NewGauge(prometheus.GaugeOpts{
			Name: "fundwise_goals_saved_percent",
			Help: "Saved amount across all goals as a percentage of their targets",
		}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundwise_daemon_polls_total",
			Help: "Store polls by result",
		}, []string{"result"}),
		pollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundwise_daemon_poll_duration_ms",
			Help:    "Store poll duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms to ~2s
		}),
	}
}

func (m *metrics) observe(s Snapshot) {
	m.overdue.Set(float64(s.OverdueCount))
	m.overdueAmount.Set(s.OverdueAmount.InexactFloat64())
	m.upcoming.Set(float64(s.UpcomingCount))
	m.upcomingAmount.Set(s.UpcomingAmount.InexactFloat64())
	m.monthlyTotal.Set(s.MonthlyTotal.InexactFloat64())
	m.goalsCompleted.Set(float64(s.GoalsCompleted))
	m.savedPercent.Set(s.SavedPercent)
}
