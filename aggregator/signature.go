package aggregator

import (
	"strings"

	"github.com/turbot/tailpipe-log-summary/types"
)

// Signature returns the error signature of a record and whether the record is ranked at all.
//
// Only records with an error level are ranked. The message is normalised by
//   - dropping a leading "<LEVEL>:" token repeated from the level (e.g. "ERROR: disk full")
//   - trimming and collapsing runs of whitespace to a single space
//   - lower-casing
//
// so "ERROR:  Disk full " and "disk full" share a signature. An empty result is not ranked.
func Signature(r *types.LogRecord) (string, bool) {
	if r == nil || r.Level == nil || !types.IsErrorLevel(*r.Level) {
		return "", false
	}
	sig := normalizeMessage(r.Message)
	if sig == "" {
		return "", false
	}
	return sig, true
}

func normalizeMessage(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return ""
	}
	if first := fields[0]; strings.HasSuffix(first, ":") && types.IsErrorLevel(strings.TrimSuffix(first, ":")) {
		fields = fields[1:]
	}
	return strings.ToLower(strings.Join(fields, " "))
}
