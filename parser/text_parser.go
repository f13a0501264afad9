package parser

import (
	"context"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/turbot/tailpipe-log-summary/types"
)

const TextParserIdentifier = "txt"

func init() {
	// register parser
	Factory.RegisterParsers(NewTextParser)
}

// textLinePattern is the lexical convention for plain text lines:
//
//	[<timestamp> ]<LEVEL>[:] <message>[ latency=<n>[ms]]
//
// The level may be wrapped in brackets, e.g. "[ERROR] disk full".
var textLinePattern = regexp.MustCompile(
	`^(?:(?P<timestamp>\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+)?` +
		`\[?(?P<level>(?i:trace|debug|info|notice|warning|warn|error|err|fatal|critical|crit|panic|severe|alert|emerg))\]?:?\s+` +
		`(?P<message>.*?)` +
		`(?:\s+latency=(?P<latency>\d+(?:\.\d+)?)(?:ms)?)?\s*$`)

var (
	textTimestampGroup = textLinePattern.SubexpIndex("timestamp")
	textLevelGroup     = textLinePattern.SubexpIndex("level")
	textMessageGroup   = textLinePattern.SubexpIndex("message")
	textLatencyGroup   = textLinePattern.SubexpIndex("latency")
)

// TextParser parses plain text objects, one record per non-blank line.
// Lines which do not follow the lexical convention still produce a record holding only the message and raw line.
type TextParser struct{}

func NewTextParser() Parser {
	return &TextParser{}
}

func (p *TextParser) Identifier() string {
	return TextParserIdentifier
}

// Parse implements [Parser]
func (p *TextParser) Parse(ctx context.Context, obj types.RawObject) iter.Seq2[*types.LogRecord, error] {
	return func(yield func(*types.LogRecord, error) bool) {
		err := forEachLine(ctx, obj, func(_ int, line string, err error) bool {
			if err != nil {
				// oversized lines still count, but are not matched
				return yield(types.NewRawRecord(line, strings.TrimSpace(line)), nil)
			}
			if strings.TrimSpace(line) == "" {
				return true
			}
			return yield(parseTextLine(line), nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

func parseTextLine(line string) *types.LogRecord {
	match := textLinePattern.FindStringSubmatch(line)
	if match == nil || strings.TrimSpace(match[textMessageGroup]) == "" {
		return types.NewRawRecord(line, strings.TrimSpace(line))
	}

	level := types.NormalizeLevel(match[textLevelGroup])
	record := &types.LogRecord{
		Level:   &level,
		Message: strings.TrimSpace(match[textMessageGroup]),
		Raw:     line,
	}
	if ts := match[textTimestampGroup]; ts != "" {
		record.Timestamp = parseTimestamp(ts)
	}
	if latency := match[textLatencyGroup]; latency != "" {
		if f, err := strconv.ParseFloat(latency, 64); err == nil && types.ValidLatency(f) {
			record.LatencyMs = &f
		}
	}
	return record
}
