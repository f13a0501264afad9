package object_store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
	"google.golang.org/api/iterator"
)

const (
	GcsStoreIdentifier = "gcp_storage_bucket"
	gcsPageSize        = 1000
)

// GcsStore is a [Store] implementation that reads objects from a Google Cloud Storage bucket
type GcsStore struct {
	bucket string
	client *storage.Client
}

func NewGcsStore(ctx context.Context, bucket string, conn *GcpConnection) (*GcsStore, error) {
	if conn == nil {
		conn = &GcpConnection{}
	}
	opts, err := conn.GetClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("Initialized GcsStore", "bucket", bucket)
	return &GcsStore{bucket: bucket, client: client}, nil
}

func (s *GcsStore) Identifier() string {
	return GcsStoreIdentifier
}

func (s *GcsStore) Location() string {
	return "gs://" + s.bucket
}

func (s *GcsStore) ListPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	pager := iterator.NewPager(it, gcsPageSize, pageToken)

	var attrs []*storage.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return nil, error_types.NewResourceNotFoundError(s.Location(), prefix, err)
		}
		return nil, fmt.Errorf("failed to get page of bucket objects, %w", err)
	}

	page := &Page{NextPageToken: next}
	for _, a := range attrs {
		// synthetic directory entries have no name
		if a.Name == "" {
			continue
		}
		page.Objects = append(page.Objects, types.ObjectInfo{
			Key:          a.Name,
			Size:         a.Size,
			LastModified: a.Updated,
		})
	}
	return page, nil
}

func (s *GcsStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download object, %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object, %w", err)
	}
	return data, nil
}

func (s *GcsStore) Close() error {
	return s.client.Close()
}
