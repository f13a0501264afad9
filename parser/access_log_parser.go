package parser

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/satyrius/gonx"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const AccessLogParserIdentifier = "access"

const accessTimeLayout = "02/Jan/2006:15:04:05 -0700"

// access log layouts, most specific first - gonx only anchors the start of a line
var accessLogFormats = []string{
	`$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent "$http_referer" "$http_user_agent" $request_time`,
	`$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent "$http_referer" "$http_user_agent"`,
	`$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent`,
}

func init() {
	// register parser
	Factory.RegisterParsers(NewAccessLogParser)
}

// AccessLogParser parses nginx/apache access logs in the common or combined layout,
// optionally followed by $request_time in seconds.
// 5xx responses are error records whose message is "<status> <method> <path>".
type AccessLogParser struct {
	parsers []*gonx.Parser
}

func NewAccessLogParser() Parser {
	res := &AccessLogParser{}
	for _, format := range accessLogFormats {
		res.parsers = append(res.parsers, gonx.NewParser(format))
	}
	return res
}

func (p *AccessLogParser) Identifier() string {
	return AccessLogParserIdentifier
}

// Parse implements [Parser]
func (p *AccessLogParser) Parse(ctx context.Context, obj types.RawObject) iter.Seq2[*types.LogRecord, error] {
	return func(yield func(*types.LogRecord, error) bool) {
		err := forEachLine(ctx, obj, func(lineNumber int, line string, err error) bool {
			if err != nil {
				return yield(nil, &error_types.MalformedInputError{Key: obj.Key, Line: lineNumber, Err: err})
			}
			if strings.TrimSpace(line) == "" {
				return true
			}
			record, err := p.parseLine(line)
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

func (p *AccessLogParser) parseLine(line string) (*types.LogRecord, error) {
	var entry *gonx.Entry
	var err error
	for _, parser := range p.parsers {
		entry, err = parser.ParseString(line)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("line does not match any access log layout: %w", err)
	}

	statusField, err := entry.Field("status")
	if err != nil {
		return nil, err
	}
	status, err := strconv.Atoi(statusField)
	if err != nil {
		return nil, fmt.Errorf("invalid status %q", statusField)
	}
	request, err := entry.Field("request")
	if err != nil {
		return nil, err
	}
	method, path, err := splitRequest(request)
	if err != nil {
		return nil, err
	}

	level := accessLevel(status)
	record := &types.LogRecord{
		Level:   &level,
		Message: fmt.Sprintf("%d %s %s", status, method, path),
		Raw:     line,
	}
	if timeLocal, err := entry.Field("time_local"); err == nil {
		if ts, err := time.Parse(accessTimeLayout, timeLocal); err == nil {
			record.Timestamp = &ts
		}
	}
	// $request_time is in seconds
	if seconds, err := entry.FloatField("request_time"); err == nil {
		if ms := seconds * 1000; types.ValidLatency(ms) {
			record.LatencyMs = &ms
		}
	}
	return record, nil
}

// splitRequest extracts the method and path (without query string) from a request line
func splitRequest(request string) (string, string, error) {
	parts := strings.Fields(request)
	if len(parts) < 2 {
		return "", "", errors.New("invalid request line")
	}
	path, _, _ := strings.Cut(parts[1], "?")
	return parts[0], path, nil
}

func accessLevel(status int) string {
	switch {
	case status >= 500:
		return "ERROR"
	case status >= 400:
		return "WARN"
	default:
		return "INFO"
	}
}
