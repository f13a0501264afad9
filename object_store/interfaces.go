package object_store

import (
	"context"
	"errors"

	"github.com/turbot/tailpipe-log-summary/types"
)

// ErrObjectNotFound is returned by Store.Get when a listed object no longer exists.
// It is never retried.
var ErrObjectNotFound = errors.New("object not found")

// Store is a remote key-addressed blob store.
// Stores provided by the package: [S3Store], [GcsStore], [CloudWatchStore], [FileSystemStore], [MemoryStore]
type Store interface {
	Identifier() string
	// Location is the store location the store was opened for, used in errors and logs
	Location() string
	// ListPage returns one page of the objects whose key starts with prefix.
	// An empty pageToken requests the first page; an empty Page.NextPageToken marks the last page.
	// A store location which does not exist is reported as a *error_types.ResourceNotFoundError.
	ListPage(ctx context.Context, prefix, pageToken string) (*Page, error)
	// Get returns the full content of an object
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

type Page struct {
	Objects       []types.ObjectInfo
	NextPageToken string
}
