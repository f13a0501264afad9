// Package metrics holds the counters of a single summary run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "log_summary"

// Metrics is a set of counters registered on a private registry, so that
// concurrent runs never share state. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	objectsFetched prometheus.Counter
	fetchRetries   prometheus.Counter
	fetchFailures  prometheus.Counter
	listPages      prometheus.Counter
	records        prometheus.Counter
	parseErrors    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry:       prometheus.NewRegistry(),
		objectsFetched: newCounter("objects_fetched_total", "Objects fetched from the store."),
		fetchRetries:   newCounter("fetch_retries_total", "Store requests retried after a transient failure."),
		fetchFailures:  newCounter("fetch_failures_total", "Objects which could not be fetched within the retry budget."),
		listPages:      newCounter("list_pages_total", "Listing pages read from the store."),
		records:        newCounter("records_total", "Log records aggregated."),
		parseErrors:    newCounter("parse_errors_total", "Lines or objects which could not be parsed."),
	}
	m.registry.MustRegister(m.objectsFetched, m.fetchRetries, m.fetchFailures, m.listPages, m.records, m.parseErrors)
	return m
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes the counters in the node exporter textfile format
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) ObjectFetched() {
	if m != nil {
		m.objectsFetched.Inc()
	}
}

func (m *Metrics) FetchRetried() {
	if m != nil {
		m.fetchRetries.Inc()
	}
}

func (m *Metrics) FetchFailed() {
	if m != nil {
		m.fetchFailures.Inc()
	}
}

func (m *Metrics) ListPageRead() {
	if m != nil {
		m.listPages.Inc()
	}
}

func (m *Metrics) RecordsAggregated(n int64) {
	if m != nil {
		m.records.Add(float64(n))
	}
}

func (m *Metrics) ParseError() {
	if m != nil {
		m.parseErrors.Inc()
	}
}
