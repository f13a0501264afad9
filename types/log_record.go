package types

import (
	"math"
	"time"
)

// MaxLatencyMs is the largest latency accepted, a little over 31 years
const MaxLatencyMs = 1e12

// LogRecord is a single parsed log entry.
// Optional fields are pointers - a nil LatencyMs means the entry carried no latency,
// which is distinct from a latency of zero.
type LogRecord struct {
	Timestamp *time.Time
	Level     *string
	Message   string
	LatencyMs *float64
	// Raw is the original line (or entry) the record was parsed from
	Raw string
}

// NewRawRecord returns a record holding only the message and raw text of a line
func NewRawRecord(line, message string) *LogRecord {
	return &LogRecord{Message: message, Raw: line}
}

func (r *LogRecord) HasLatency() bool {
	return r.LatencyMs != nil
}

func (r *LogRecord) LevelString() string {
	if r.Level == nil {
		return ""
	}
	return *r.Level
}

// ValidLatency reports whether f is a usable latency in milliseconds.
// Anything else is treated as absent.
func ValidLatency(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= MaxLatencyMs
}
