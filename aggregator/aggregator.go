// Package aggregator folds a stream of log records into a summary report.
// Records are not retained: memory is bounded by the number of distinct error signatures.
package aggregator

import (
	"iter"
	"math"
	"math/bits"
	"sort"

	"github.com/turbot/tailpipe-log-summary/types"
)

// DefaultTopN is the number of error signatures kept in a report
const DefaultTopN = 10

// latencies are summed as integer microseconds so that merging partial
// aggregates gives the same result whatever the merge order
const latencyScale = 1000

// Aggregator is the running state of a summary. It is not safe for concurrent use;
// concurrent producers each own an Aggregator and Merge them when done.
type Aggregator struct {
	topN int

	total          int64
	objects        int64
	skippedObjects int64
	parseErrors    int64

	latencySum   latencyTotal
	latencyCount int64

	errorCounts map[string]int64
}

func New(topN int) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Aggregator{
		topN:        topN,
		errorCounts: make(map[string]int64),
	}
}

// Add folds a single record into the running state
func (a *Aggregator) Add(r *types.LogRecord) {
	if r == nil {
		return
	}
	a.total++
	if r.LatencyMs != nil && types.ValidLatency(*r.LatencyMs) {
		a.latencySum.add(latencyTotal{lo: uint64(math.Round(*r.LatencyMs * latencyScale))})
		a.latencyCount++
	}
	if sig, ok := Signature(r); ok {
		a.errorCounts[sig]++
	}
}

func (a *Aggregator) AddParseError() {
	a.parseErrors++
}

// AddObject records that an object was fetched and parsed
func (a *Aggregator) AddObject() {
	a.objects++
}

// AddSkippedObject records an object which could not be fetched or decoded
func (a *Aggregator) AddSkippedObject() {
	a.skippedObjects++
}

// Merge folds the state of other into a. Merge is associative and commutative.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	a.total += other.total
	a.objects += other.objects
	a.skippedObjects += other.skippedObjects
	a.parseErrors += other.parseErrors
	a.latencySum.add(other.latencySum)
	a.latencyCount += other.latencyCount
	for sig, count := range other.errorCounts {
		a.errorCounts[sig] += count
	}
}

func (a *Aggregator) Total() int64 {
	return a.total
}

// Report finalizes the running state. The aggregator may continue to be used afterwards.
func (a *Aggregator) Report() Report {
	avg := 0.0
	if a.latencyCount > 0 {
		avg = round2(a.latencySum.float() / latencyScale / float64(a.latencyCount))
	}
	return Report{
		TotalLogs:      a.total,
		TopErrors:      a.topErrors(),
		AvgLatency:     avg,
		Objects:        a.objects,
		SkippedObjects: a.skippedObjects,
		ParseErrors:    a.parseErrors,
		LatencySamples: a.latencyCount,
	}
}

// topErrors ranks signatures by count descending, then signature ascending
func (a *Aggregator) topErrors() []ErrorCount {
	ranked := make([]ErrorCount, 0, len(a.errorCounts))
	for sig, count := range a.errorCounts {
		ranked = append(ranked, ErrorCount{Signature: sig, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count == ranked[j].Count {
			return ranked[i].Signature < ranked[j].Signature
		}
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > a.topN {
		ranked = ranked[:a.topN]
	}
	return ranked
}

// latencyTotal is an unsigned 128 bit sum of latencies in microseconds
type latencyTotal struct {
	hi, lo uint64
}

func (t *latencyTotal) add(other latencyTotal) {
	var carry uint64
	t.lo, carry = bits.Add64(t.lo, other.lo, 0)
	t.hi, _ = bits.Add64(t.hi, other.hi, carry)
}

func (t latencyTotal) float() float64 {
	return float64(t.hi)*(1<<64) + float64(t.lo)
}

// Aggregate folds a record sequence into a report. Sequence errors are counted as parse errors.
func Aggregate(records iter.Seq2[*types.LogRecord, error]) Report {
	a := New(DefaultTopN)
	for r, err := range records {
		if err != nil {
			a.AddParseError()
			continue
		}
		a.Add(r)
	}
	return a.Report()
}
