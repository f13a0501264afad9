// Package filter defines the immutable description of which objects to summarize.
package filter

import (
	"strings"

	"github.com/turbot/tailpipe-log-summary/error_types"
)

// DefaultFormat is used when the caller does not name a format
const DefaultFormat = "json"

// Spec selects the objects to fetch and the format to parse them with.
// The format is not validated here; resolution against the parser registry reports unknown formats.
type Spec struct {
	storeLocation string
	keyPrefix     string
	format        string
}

// New builds a Spec. Location and prefix are required, an empty format falls back to DefaultFormat.
func New(storeLocation, keyPrefix, format string) (Spec, error) {
	storeLocation = strings.TrimSpace(storeLocation)
	if storeLocation == "" {
		return Spec{}, &error_types.InvalidFilterError{Field: "store_location", Reason: "a store location is required"}
	}
	if keyPrefix == "" {
		return Spec{}, &error_types.InvalidFilterError{Field: "key_prefix", Reason: "a key prefix is required"}
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DefaultFormat
	}
	return Spec{storeLocation: storeLocation, keyPrefix: keyPrefix, format: format}, nil
}

func (s Spec) StoreLocation() string { return s.storeLocation }

func (s Spec) KeyPrefix() string { return s.keyPrefix }

func (s Spec) Format() string { return s.format }

func (s Spec) String() string {
	return s.storeLocation + "/" + s.keyPrefix + " (" + s.format + ")"
}
