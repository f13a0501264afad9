package types

import (
	"path"
	"strings"
)

// compressed suffixes which are looked through when checking an object key extension
var compressedExtensions = []string{".gz", ".gzip"}

type ExtensionLookup map[string]struct{}

func NewExtensionLookup(extensions []string) ExtensionLookup {
	lookup := make(ExtensionLookup)
	for _, ext := range extensions {
		lookup[strings.ToLower(ext)] = struct{}{}
	}
	return lookup
}

// IsValid returns whether the key has one of the configured extensions.
// A compression suffix is ignored, so "app.log.gz" matches ".log".
func (l ExtensionLookup) IsValid(key string) bool {
	// empty lookup means all extensions are valid
	if len(l) == 0 {
		return true
	}

	key = strings.ToLower(key)
	if _, valid := l[path.Ext(key)]; valid {
		return true
	}
	for _, c := range compressedExtensions {
		if strings.HasSuffix(key, c) {
			_, valid := l[path.Ext(strings.TrimSuffix(key, c))]
			return valid
		}
	}
	return false
}
