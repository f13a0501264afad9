package artifact_loader

import (
	"context"

	"github.com/turbot/tailpipe-log-summary/types"
)

const FileLoaderIdentifier = "file_loader"

// FileLoader is a Loader for uncompressed objects - the content is passed through unchanged
type FileLoader struct {
}

func NewFileLoader() Loader {
	return &FileLoader{}
}

func (g FileLoader) Identifier() string {
	return FileLoaderIdentifier
}

func (g FileLoader) CanLoad(types.RawObject) bool {
	return true
}

// Load implements [Loader]
func (g FileLoader) Load(_ context.Context, obj types.RawObject) (types.RawObject, error) {
	return obj, nil
}
