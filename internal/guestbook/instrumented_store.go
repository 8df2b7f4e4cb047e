package guestbook

import (
	"context"
	"time"

	"github.com/2beens/guestbook/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Store = (*InstrumentedStore)(nil)

// InstrumentedStore counts and times the calls to the wrapped store.
type InstrumentedStore struct {
	store   Store
	metrics *metrics.Manager
}

func NewInstrumentedStore(store Store, metricsManager *metrics.Manager) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: metricsManager,
	}
}

func (s *InstrumentedStore) ListEntries(ctx context.Context) ([]Entry, error) {
	defer s.observe("list", time.Now())
	entries, err := s.store.ListEntries(ctx)
	s.count("list", err)
	return entries, err
}

func (s *InstrumentedStore) CreateEntry(ctx context.Context, name, message string) error {
	defer s.observe("create", time.Now())
	err := s.store.CreateEntry(ctx, name, message)
	s.count("create", err)
	return err
}

func (s *InstrumentedStore) observe(op string, begin time.Time) {
	s.metrics.HistogramStoreDuration.
		With(prometheus.Labels{"op": op}).
		Observe(time.Since(begin).Seconds())
}

func (s *InstrumentedStore) count(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.CounterStoreCalls.With(prometheus.Labels{
		"op":     op,
		"result": result,
	}).Inc()
}
