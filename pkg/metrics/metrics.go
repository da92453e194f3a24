// Package metrics exposes Prometheus counters for OLC activity.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source is what the records gauge is refreshed from. Do runs fn under
// the same lock that guards commits.
type Source interface {
	Tables() []olc.AnyTable
	Do(fn func())
}

// Metrics holds the OLC collectors.
type Metrics struct {
	src       Source
	startTime time.Time
	gatherer  prometheus.Gatherer

	records       *prometheus.GaugeVec
	inDev         *prometheus.GaugeVec
	commitsTotal  *prometheus.CounterVec
	deletesTotal  *prometheus.CounterVec
	findings      *prometheus.GaugeVec
	uptimeSeconds prometheus.Gauge
	goroutines    prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg
// uses a private registry.
func New(src Source, startTime time.Time, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		src:       src,
		startTime: startTime,
		gatherer:  reg,
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "empireolc_records",
			Help: "Number of stored prototypes by kind.",
		}, []string{"kind"}),
		inDev: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "empireolc_records_in_development",
			Help: "Number of prototypes flagged IN-DEVELOPMENT by kind.",
		}, []string{"kind"}),
		commitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empireolc_commits_total",
			Help: "Prototypes saved through OLC since start.",
		}, []string{"kind"}),
		deletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empireolc_deletes_total",
			Help: "Prototypes deleted since start.",
		}, []string{"kind"}),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "empireolc_audit_findings",
			Help: "Findings from the last audit run by kind and severity.",
		}, []string{"kind", "severity"}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "empireolc_uptime_seconds",
			Help: "Daemon uptime in seconds.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "empireolc_goroutines",
			Help: "Number of active goroutines.",
		}),
	}
	reg.MustRegister(
		m.records,
		m.inDev,
		m.commitsTotal,
		m.deletesTotal,
		m.findings,
		m.uptimeSeconds,
		m.goroutines,
	)
	return m
}

// Update refreshes every gauge from the current tables.
func (m *Metrics) Update() {
	if m.src != nil {
		m.src.Do(m.countRecords)
	}
	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// countRecords reads live prototypes; the caller holds the writer lock.
func (m *Metrics) countRecords() {
	for _, t := range m.src.Tables() {
		kind := t.Kind().String()
		m.records.WithLabelValues(kind).Set(float64(t.Len()))
		n := 0
		for _, v := range t.Vnums() {
			if rec, ok := t.Get(v); ok && rec.InDevelopment() {
				n++
			}
		}
		m.inDev.WithLabelValues(kind).Set(float64(n))
	}
}

// Audited replaces the findings gauge with the result of one audit run.
func (m *Metrics) Audited(findings []audit.Finding) {
	m.findings.Reset()
	for _, f := range findings {
		m.findings.WithLabelValues(f.Kind.String(), f.Severity.String()).Inc()
	}
}

func (m *Metrics) Committed(_ *olc.Session, kind proto.Kind, _ proto.Record) {
	m.commitsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) Deleted(_ *olc.Session, kind proto.Kind, _ proto.Vnum) {
	m.deletesTotal.WithLabelValues(kind.String()).Inc()
}

// Handler returns an http.Handler that updates gauges before serving them.
func (m *Metrics) Handler() http.Handler {
	inner := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		inner.ServeHTTP(w, r)
	})
}
