package aggregator

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/tailpipe-log-summary/types"
)

func record(level, message string, latency ...float64) *types.LogRecord {
	r := &types.LogRecord{Message: message, Raw: message}
	if level != "" {
		r.Level = &level
	}
	if len(latency) > 0 {
		r.LatencyMs = &latency[0]
	}
	return r
}

func TestAggregator_Scenario(t *testing.T) {
	a := New(DefaultTopN)
	a.Add(record("ERROR", "disk full", 100))
	a.Add(record("ERROR", "ERROR: disk full", 200))
	a.Add(record("INFO", "ok", 50))

	report := a.Report()
	assert.Equal(t, int64(3), report.TotalLogs)
	assert.Equal(t, []ErrorCount{{Signature: "disk full", Count: 2}}, report.TopErrors)
	assert.Equal(t, 116.67, report.AvgLatency)
	assert.Equal(t, int64(3), report.LatencySamples)
}

func TestAggregator_AvgLatencySentinel(t *testing.T) {
	a := New(DefaultTopN)
	a.Add(record("", "free text"))
	a.Add(record("WARN", "slow"))

	report := a.Report()
	assert.Equal(t, int64(2), report.TotalLogs)
	assert.Equal(t, 0.0, report.AvgLatency)
	assert.Equal(t, int64(0), report.LatencySamples)
	assert.Empty(t, report.TopErrors)
}

func TestAggregator_ZeroLatencyIsCounted(t *testing.T) {
	a := New(DefaultTopN)
	a.Add(record("INFO", "a", 0))
	a.Add(record("INFO", "b", 10))
	a.Add(record("INFO", "c"))

	report := a.Report()
	assert.Equal(t, 5.0, report.AvgLatency)
	assert.Equal(t, int64(2), report.LatencySamples)
}

func TestAggregator_OutOfRangeLatencyIsAbsent(t *testing.T) {
	a := New(DefaultTopN)
	a.Add(record("ERROR", "huge", 1e17))
	a.Add(record("ERROR", "nan", math.NaN()))
	a.Add(record("INFO", "ok", 10))

	report := a.Report()
	assert.Equal(t, int64(3), report.TotalLogs)
	assert.Equal(t, 10.0, report.AvgLatency)
	assert.Equal(t, int64(1), report.LatencySamples)
}

func TestAggregator_LargeLatencySumDoesNotOverflow(t *testing.T) {
	// each sample is 1e15us, the int64 range is exceeded after about 9223 of them
	parts := make([]*Aggregator, 4)
	for i := range parts {
		parts[i] = New(DefaultTopN)
		for j := 0; j < 5000; j++ {
			parts[i].Add(record("INFO", "slow", types.MaxLatencyMs))
		}
	}
	total := New(DefaultTopN)
	for _, p := range parts {
		total.Merge(p)
	}

	report := total.Report()
	assert.Equal(t, int64(20000), report.LatencySamples)
	assert.Equal(t, types.MaxLatencyMs, report.AvgLatency)
}

func TestAggregator_TopErrorsOrderingAndBound(t *testing.T) {
	a := New(3)
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1, "e": 2}
	for sig, n := range counts {
		for i := 0; i < n; i++ {
			a.Add(record("ERROR", sig))
		}
	}
	report := a.Report()
	assert.Equal(t, []ErrorCount{
		{Signature: "c", Count: 5},
		{Signature: "a", Count: 2},
		{Signature: "b", Count: 2},
	}, report.TopErrors)
}

func TestAggregator_DefaultTopNBound(t *testing.T) {
	a := New(0)
	for i := 0; i < 25; i++ {
		a.Add(record("FATAL", fmt.Sprintf("failure %02d", i)))
	}
	report := a.Report()
	require.Len(t, report.TopErrors, DefaultTopN)
	assert.Equal(t, "failure 00", report.TopErrors[0].Signature)
}

func TestAggregator_MergeIsOrderIndependent(t *testing.T) {
	build := func(records ...*types.LogRecord) *Aggregator {
		a := New(DefaultTopN)
		for _, r := range records {
			a.Add(r)
		}
		return a
	}
	parts := func() []*Aggregator {
		return []*Aggregator{
			build(record("ERROR", "x", 0.1), record("ERROR", "y", 0.2)),
			build(record("ERROR", "y", 0.3), record("INFO", "ok")),
			build(record("CRITICAL", "x", 2.0), record("ERROR", "z")),
		}
	}

	forward := New(DefaultTopN)
	for _, p := range parts() {
		forward.Merge(p)
	}
	backward := New(DefaultTopN)
	ps := parts()
	for i := len(ps) - 1; i >= 0; i-- {
		backward.Merge(ps[i])
	}
	nested := New(DefaultTopN)
	ps = parts()
	ps[1].Merge(ps[2])
	nested.Merge(ps[1])
	nested.Merge(ps[0])

	assert.Equal(t, forward.Report(), backward.Report())
	assert.Equal(t, forward.Report(), nested.Report())
	assert.Equal(t, int64(6), forward.Report().TotalLogs)
	assert.Equal(t, 0.65, forward.Report().AvgLatency)
}

func TestAggregate_CountsSequenceErrors(t *testing.T) {
	seq := func(yield func(*types.LogRecord, error) bool) {
		if !yield(record("ERROR", "boom", 4), nil) {
			return
		}
		if !yield(nil, fmt.Errorf("bad line")) {
			return
		}
		yield(record("INFO", "fine", 6), nil)
	}
	report := Aggregate(seq)
	assert.Equal(t, int64(2), report.TotalLogs)
	assert.Equal(t, int64(1), report.ParseErrors)
	assert.Equal(t, 5.0, report.AvgLatency)
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name   string
		record *types.LogRecord
		want   string
		ranked bool
	}{
		{name: "error", record: record("ERROR", "disk full"), want: "disk full", ranked: true},
		{name: "case and padding", record: record("error", "  Disk   FULL "), want: "disk full", ranked: true},
		{name: "repeated level token", record: record("FATAL", "FATAL: out of memory"), want: "out of memory", ranked: true},
		{name: "alias level", record: record("err", "boom"), want: "boom", ranked: true},
		{name: "info is not an error", record: record("INFO", "ok")},
		{name: "missing level", record: record("", "ERROR: text only")},
		{name: "empty message", record: record("ERROR", "   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ranked := Signature(tt.record)
			assert.Equal(t, tt.ranked, ranked)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReport_JSON(t *testing.T) {
	report := Report{
		TotalLogs:  3,
		TopErrors:  []ErrorCount{{Signature: "disk full", Count: 2}},
		AvgLatency: 116.67,
	}
	b, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"total_logs":3`)
	assert.Contains(t, string(b), `"top_errors":[["disk full",2]]`)
	assert.Contains(t, string(b), `"avg_latency":116.67`)

	var decoded Report
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, report, decoded)
}
