package aggregator

import (
	"encoding/json"
	"fmt"
	"math"
)

// ErrorCount is a ranked error signature.
// It is serialised as a two element [signature, count] sequence.
type ErrorCount struct {
	Signature string
	Count     int64
}

func (e ErrorCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Signature, e.Count})
}

func (e ErrorCount) MarshalYAML() (any, error) {
	return []any{e.Signature, e.Count}, nil
}

func (e *ErrorCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [signature, count], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Signature); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Count)
}

// Report is the immutable result of an aggregation.
// AvgLatency is rounded to 2 decimal places and is 0 when no record carried a latency.
type Report struct {
	TotalLogs  int64        `json:"total_logs" yaml:"total_logs"`
	TopErrors  []ErrorCount `json:"top_errors" yaml:"top_errors"`
	AvgLatency float64      `json:"avg_latency" yaml:"avg_latency"`

	Objects        int64 `json:"objects" yaml:"objects"`
	SkippedObjects int64 `json:"skipped_objects" yaml:"skipped_objects"`
	ParseErrors    int64 `json:"parse_errors" yaml:"parse_errors"`
	LatencySamples int64 `json:"latency_samples" yaml:"latency_samples"`
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
