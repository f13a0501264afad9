package object_store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const (
	FileSystemStoreIdentifier = "file_system"
	defaultFileSystemPageSize = 1000
)

// FileSystemStore is a [Store] over a local directory tree.
// Keys are slash separated paths relative to the root; the page token is the last key of the previous page.
// The tree is walked on the first successful listing and the sorted entries are kept for the lifetime of the store.
type FileSystemStore struct {
	root     string
	pageSize int

	mu      sync.Mutex
	entries []types.ObjectInfo
}

func NewFileSystemStore(root string) *FileSystemStore {
	return &FileSystemStore{root: filepath.Clean(root), pageSize: defaultFileSystemPageSize}
}

func (s *FileSystemStore) Identifier() string {
	return FileSystemStoreIdentifier
}

func (s *FileSystemStore) Location() string {
	return s.root
}

func (s *FileSystemStore) ListPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	entries, err := s.listEntries(ctx, prefix)
	if err != nil {
		return nil, err
	}

	// first key after the token, then the run of keys sharing the prefix
	start := sort.Search(len(entries), func(i int) bool {
		return entries[i].Key > pageToken && entries[i].Key >= prefix
	})
	page := &Page{}
	for i := start; i < len(entries) && strings.HasPrefix(entries[i].Key, prefix); i++ {
		if len(page.Objects) == s.pageSize {
			page.NextPageToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, entries[i])
	}
	return page, nil
}

func (s *FileSystemStore) listEntries(ctx context.Context, prefix string) ([]types.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries != nil {
		return s.entries, nil
	}

	stat, err := os.Stat(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, error_types.NewResourceNotFoundError(s.Location(), prefix, err)
		}
		return nil, err
	}
	if !stat.IsDir() {
		return nil, error_types.NewResourceNotFoundError(s.Location(), prefix, fmt.Errorf("%s is not a directory", s.root))
	}

	entries := []types.ObjectInfo{}
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		info := types.ObjectInfo{Key: filepath.ToSlash(rel)}
		if fi, err := d.Info(); err == nil {
			info.Size = fi.Size()
			info.LastModified = fi.ModTime()
		}
		entries = append(entries, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	s.entries = entries
	return entries, nil
}

func (s *FileSystemStore) Get(_ context.Context, key string) ([]byte, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return nil, fmt.Errorf("%w: %s is outside %s", ErrObjectNotFound, key, s.root)
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

func (s *FileSystemStore) Close() error {
	return nil
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
