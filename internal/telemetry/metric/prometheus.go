package metric

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablesh"

// Counter is a cumulative metric that only increases.
type Counter interface {
	Inc()
	Add(float64)
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Histogram samples observations and counts them in buckets.
type Histogram interface {
	Observe(float64)
}

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Tee metrics
	TeeCopies       Counter
	TeeCopyFailures CounterVec
	TeeCopyDuration Histogram

	// Scan metrics
	ScanEntries Counter

	// Write metrics
	MutationsWritten Counter
	WriterFlushes    Counter
}

type counterVec struct {
	vec *prometheus.CounterVec
}

func (c counterVec) WithLabelValues(lvs ...string) Counter {
	return c.vec.WithLabelValues(lvs...)
}

// NewRegistry creates the application metrics on a fresh Prometheus registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	teeCopies := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tee",
		Name:      "copies_total",
		Help:      "Entries durably copied to a tee table",
	})
	teeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tee",
		Name:      "copy_failures_total",
		Help:      "Failed tee copies by error class",
	}, []string{"class"})
	teeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tee",
		Name:      "copy_duration_seconds",
		Help:      "Time to open, write and close the tee writer for one entry",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	scanEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scan",
		Name:      "entries_total",
		Help:      "Entries returned by scan cursors",
	})
	mutations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "mutations_total",
		Help:      "Mutations written by batch writers",
	})
	flushes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "flushes_total",
		Help:      "Batch writer flushes",
	})

	reg.MustRegister(teeCopies, teeFailures, teeDuration, scanEntries, mutations, flushes)

	return &Registry{
		reg:              reg,
		TeeCopies:        teeCopies,
		TeeCopyFailures:  counterVec{vec: teeFailures},
		TeeCopyDuration:  teeDuration,
		ScanEntries:      scanEntries,
		MutationsWritten: mutations,
		WriterFlushes:    flushes,
	}
}

// Registerer exposes the underlying registry for components that bring
// their own collectors, such as the store size gauges.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string  `json:"name" yaml:"name"`
	Labels string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	Value  float64 `json:"value" yaml:"value"`
}

// Snapshot gathers every metric as a sorted list of samples. Histograms
// are reported as their _count and _sum.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			ls := strings.Join(labels, ",")

			switch {
			case m.GetCounter() != nil:
				out = append(out, Sample{Name: mf.GetName(), Labels: ls, Value: m.GetCounter().GetValue()})
			case m.GetGauge() != nil:
				out = append(out, Sample{Name: mf.GetName(), Labels: ls, Value: m.GetGauge().GetValue()})
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				out = append(out,
					Sample{Name: mf.GetName() + "_count", Labels: ls, Value: float64(h.GetSampleCount())},
					Sample{Name: mf.GetName() + "_sum", Labels: ls, Value: h.GetSampleSum()},
				)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

// Value returns the first sample with the given name, or 0.
func (r *Registry) Value(name string, labels string) float64 {
	samples, err := r.Snapshot()
	if err != nil {
		return 0
	}
	for _, s := range samples {
		if s.Name == name && s.Labels == labels {
			return s.Value
		}
	}
	return 0
}
