package artifact_loader

import (
	"context"

	"github.com/turbot/tailpipe-log-summary/types"
)

// Loader is an interface which provides a method for turning the fetched bytes of an object
// into the plain bytes a parser consumes, performing any necessary decompression.
// Loaders provided by the package: [GzipLoader], [FileLoader]
type Loader interface {
	Identifier() string
	// CanLoad returns whether the loader handles this object, based on its key and content
	CanLoad(obj types.RawObject) bool
	// Load returns the decoded object. The returned object replaces the input.
	Load(context.Context, types.RawObject) (types.RawObject, error)
}
