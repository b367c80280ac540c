package observability

import (
	"errors"
	"strconv"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dialogue navigation as Prometheus series.
type Metrics struct {
	Events  *prometheus.CounterVec
	Visits  *prometheus.CounterVec
	Depth   prometheus.Histogram
	Choices *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_dialogue_events_total",
			Help: "Navigation events emitted by the traversal engine.",
		}, []string{"type"}),
		Visits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_node_visits_total",
			Help: "Dialogues committed per node.",
		}, []string{"node_id"}),
		Depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "murmur_history_depth",
			Help:    "History depth observed at each commit.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		Choices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "murmur_branch_selections_total",
			Help: "Branches selected, by node and slot.",
		}, []string{"node_id", "slot"}),
	}

	var err error
	if m.Events, err = register(reg, m.Events); err != nil {
		return nil, err
	}
	if m.Visits, err = register(reg, m.Visits); err != nil {
		return nil, err
	}
	if m.Depth, err = register(reg, m.Depth); err != nil {
		return nil, err
	}
	if m.Choices, err = register(reg, m.Choices); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(e *domain.DialogueEvent) {
		m.Events.WithLabelValues(string(e.Type)).Inc()
	}
	return domain.LifecycleHooks{
		OnCommit: func(e *domain.DialogueEvent) {
			count(e)
			m.Visits.WithLabelValues(e.NodeID).Inc()
			m.Depth.Observe(float64(e.HistoryDepth))
		},
		OnStepBack:          count,
		OnBranchesPresented: count,
		OnBranchSelected: func(e *domain.DialogueEvent) {
			count(e)
			m.Choices.WithLabelValues(e.NodeID, strconv.Itoa(e.Slot)).Inc()
		},
		OnDeadEnd: count,
	}
}
