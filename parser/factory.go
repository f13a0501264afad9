package parser

import (
	"slices"
	"strings"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"golang.org/x/exp/maps"
)

// Factory is the global ParserFactory instance.
// It is populated from package init functions and only read afterwards.
var Factory = newParserFactory()

type ParserFactory struct {
	parsers map[string]func() Parser
}

func newParserFactory() ParserFactory {
	return ParserFactory{
		parsers: make(map[string]func() Parser),
	}
}

func (f *ParserFactory) RegisterParsers(parserFuncs ...func() Parser) {
	for _, ctor := range parserFuncs {
		// create an instance of the parser to get the identifier
		p := ctor()
		f.parsers[p.Identifier()] = ctor
	}
}

// Resolve returns a new parser for the given format.
// There is no fallback format: an unregistered selector is an error.
func (f *ParserFactory) Resolve(format string) (Parser, error) {
	ctor, ok := f.parsers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, &error_types.UnsupportedFormatError{Format: format, Supported: f.Formats()}
	}
	return ctor(), nil
}

// Formats returns the sorted identifiers of all registered parsers
func (f *ParserFactory) Formats() []string {
	formats := maps.Keys(f.parsers)
	slices.Sort(formats)
	return formats
}

func Resolve(format string) (Parser, error) {
	return Factory.Resolve(format)
}

func Formats() []string {
	return Factory.Formats()
}
