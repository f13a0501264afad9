package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const JSONParserIdentifier = "json"

func init() {
	// register parser
	Factory.RegisterParsers(NewJSONParser)
}

// field name candidates, after snake casing, in order of preference
var (
	timestampFields = []string{"timestamp", "time", "ts", "datetime", "date"}
	levelFields     = []string{"level", "severity", "log_level", "lvl"}
	messageFields   = []string{"message", "msg", "error", "event"}
	latencyFields   = []string{"latency_ms", "latency", "duration_ms", "response_time_ms", "elapsed_ms"}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
}

// JSONParser parses structured objects: JSON Lines, or a single JSON array of entries.
type JSONParser struct{}

func NewJSONParser() Parser {
	return &JSONParser{}
}

func (p *JSONParser) Identifier() string {
	return JSONParserIdentifier
}

// Parse implements [Parser]
func (p *JSONParser) Parse(ctx context.Context, obj types.RawObject) iter.Seq2[*types.LogRecord, error] {
	return func(yield func(*types.LogRecord, error) bool) {
		if trimmed := bytes.TrimSpace(obj.Data); len(trimmed) > 0 && trimmed[0] == '[' {
			p.parseArray(ctx, obj, yield)
			return
		}

		err := forEachLine(ctx, obj, func(lineNumber int, line string, err error) bool {
			if err != nil {
				return yield(nil, &error_types.MalformedInputError{Key: obj.Key, Line: lineNumber, Err: err})
			}
			if strings.TrimSpace(line) == "" {
				return true
			}
			record, err := parseJSONEntry(line)
			if err != nil {
				return yield(nil, &error_types.MalformedInputError{Key: obj.Key, Line: lineNumber, Err: err})
			}
			return yield(record, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// parseArray handles objects holding a single JSON document which is an array of entries
func (p *JSONParser) parseArray(ctx context.Context, obj types.RawObject, yield func(*types.LogRecord, error) bool) {
	data, err := decodeText(obj)
	if err != nil {
		yield(nil, err)
		return
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		yield(nil, &error_types.MalformedInputError{Key: obj.Key, Err: err})
		return
	}
	for i, entry := range entries {
		if ctx.Err() != nil {
			yield(nil, ctx.Err())
			return
		}
		record, err := parseJSONEntry(string(entry))
		if err != nil {
			err = &error_types.MalformedInputError{Key: obj.Key, Line: i + 1, Err: err}
		}
		if !yield(record, err) {
			return
		}
	}
}

func parseJSONEntry(entry string) (*types.LogRecord, error) {
	decoder := json.NewDecoder(strings.NewReader(entry))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("entry is not a JSON object")
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after JSON object")
	}

	fields := normalizeFieldNames(raw)
	record := &types.LogRecord{Raw: entry}

	if v, ok := firstField(fields, timestampFields); ok {
		record.Timestamp = jsonTimestamp(v)
	}
	if v, ok := firstField(fields, levelFields); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			level := types.NormalizeLevel(s)
			record.Level = &level
		}
	}
	if v, ok := firstField(fields, messageFields); ok {
		record.Message = jsonString(v)
	}
	if v, ok := firstField(fields, latencyFields); ok {
		record.LatencyMs = jsonLatency(v)
	}
	return record, nil
}

// normalizeFieldNames snake cases every key, so latencyMs, LatencyMS and latency_ms are the same field.
// Keys are visited in sorted order so that colliding names resolve deterministically.
func normalizeFieldNames(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(raw))
	for _, k := range keys {
		name := strcase.ToSnake(strings.TrimLeft(k, "@_"))
		if _, exists := fields[name]; !exists {
			fields[name] = raw[k]
		}
	}
	return fields
}

func firstField(fields map[string]any, candidates []string) (any, bool) {
	for _, c := range candidates {
		if v, ok := fields[c]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// jsonLatency returns nil for anything which is not a valid latency, see [types.ValidLatency]
func jsonLatency(v any) *float64 {
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "ms"), 64)
	default:
		return nil
	}
	if err != nil || !types.ValidLatency(f) {
		return nil
	}
	return &f
}

func jsonTimestamp(v any) *time.Time {
	switch t := v.(type) {
	case string:
		return parseTimestamp(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil
		}
		var ts time.Time
		// values this large are epoch milliseconds
		if n > 1e12 {
			ts = time.UnixMilli(int64(n)).UTC()
		} else {
			ts = time.Unix(int64(n), 0).UTC()
		}
		return &ts
	}
	return nil
}

func parseTimestamp(s string) *time.Time {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}
