package parser

import (
	"context"
	"iter"

	"github.com/turbot/tailpipe-log-summary/types"
)

// Parser converts the bytes of one object into log records.
// Parsers provided by the package: [JSONParser], [TextParser], [AccessLogParser]
type Parser interface {
	// Identifier is the format selector the parser is registered under
	Identifier() string
	// Parse returns a forward-only sequence of the records in the object.
	// A line which cannot be parsed is yielded as a *error_types.MalformedInputError with the
	// line number set and iteration continues. An object which cannot be decoded at all yields a
	// single object-level *error_types.MalformedInputError and the sequence ends.
	Parse(ctx context.Context, obj types.RawObject) iter.Seq2[*types.LogRecord, error]
}
