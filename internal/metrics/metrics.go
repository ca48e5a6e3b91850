// Package metrics exposes Prometheus metrics for lookups and table reloads.
package metrics

import (
	"errors"
	"net/netip"

	"github.com/TomasB/geolocate/internal/country"
	"github.com/TomasB/geolocate/internal/data"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geolocate"

// Lookup results.
const (
	ResultFound    = "found"
	ResultMissing  = "missing"
	ResultUnmapped = "unmapped"
	ResultError    = "error"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	Lookups *prometheus.CounterVec
	Blocks  *prometheus.GaugeVec
	Reloads *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "number of address lookups by family and result",
			},
			[]string{"family", "result"},
		),
		Blocks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "blocks",
				Help:      "number of address blocks in the loaded tables",
			},
			[]string{"family"},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "number of table reloads by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.Lookups, m.Blocks, m.Reloads)
	return m
}

// ObserveTables records the size of t.
func (m *Metrics) ObserveTables(t *data.Tables) {
	m.Blocks.WithLabelValues("ipv4").Set(float64(t.V4.Len()))
	m.Blocks.WithLabelValues("ipv6").Set(float64(t.V6.Len()))
}

// ObserveReload counts a reload attempt.
func (m *Metrics) ObserveReload(err error) {
	if err != nil {
		m.Reloads.WithLabelValues(ResultError).Inc()
		return
	}
	m.Reloads.WithLabelValues("ok").Inc()
}

// Instrument wraps next so that every lookup is counted.
func (m *Metrics) Instrument(next data.CountryLookup) data.CountryLookup {
	return &instrumented{next: next, m: m}
}

type instrumented struct {
	next data.CountryLookup
	m    *Metrics
}

func (l *instrumented) Lookup(addr netip.Addr) (country.Resolved, error) {
	r, err := l.next.Lookup(addr)

	family := "ipv6"
	if addr.Unmap().Is4() {
		family = "ipv4"
	}
	result := ResultFound
	switch {
	case errors.Is(err, data.ErrUnmapped):
		result = ResultUnmapped
	case err != nil:
		result = ResultError
	case !r.Found():
		result = ResultMissing
	}
	l.m.Lookups.WithLabelValues(family, result).Inc()

	return r, err
}

func (l *instrumented) Close() error {
	return l.next.Close()
}
