package object_store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const MemoryStoreIdentifier = "memory"

// MemoryStore is an in-process [Store], used for tests and for summarising
// content already held in memory. Failures can be injected per key to exercise retries.
type MemoryStore struct {
	location string
	pageSize int

	mu           sync.Mutex
	objects      map[string][]byte
	missing      bool
	getFailures  map[string][]error
	listFailures []error
	getCalls     map[string]int
	listCalls    int
}

func NewMemoryStore(location string, pageSize int) *MemoryStore {
	if pageSize <= 0 {
		pageSize = defaultFileSystemPageSize
	}
	return &MemoryStore{
		location:    location,
		pageSize:    pageSize,
		objects:     make(map[string][]byte),
		getFailures: make(map[string][]error),
		getCalls:    make(map[string]int),
	}
}

func (s *MemoryStore) Identifier() string {
	return MemoryStoreIdentifier
}

func (s *MemoryStore) Location() string {
	return s.location
}

func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// SetMissing makes the store behave as if its location does not exist
func (s *MemoryStore) SetMissing(missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing = missing
}

// FailGet makes the next len(errs) calls to Get for key return errs in order
func (s *MemoryStore) FailGet(key string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getFailures[key] = append(s.getFailures[key], errs...)
}

// FailList makes the next len(errs) calls to ListPage return errs in order
func (s *MemoryStore) FailList(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFailures = append(s.listFailures, errs...)
}

// GetCalls returns the number of times Get has been called for key
func (s *MemoryStore) GetCalls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls[key]
}

func (s *MemoryStore) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *MemoryStore) ListPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.missing {
		return nil, error_types.NewResourceNotFoundError(s.location, prefix, fmt.Errorf("store does not exist"))
	}
	if len(s.listFailures) > 0 {
		err := s.listFailures[0]
		s.listFailures = s.listFailures[1:]
		return nil, err
	}

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) && key > pageToken {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	page := &Page{}
	if len(keys) > s.pageSize {
		keys = keys[:s.pageSize]
		page.NextPageToken = keys[len(keys)-1]
	}
	for _, key := range keys {
		page.Objects = append(page.Objects, types.ObjectInfo{Key: key, Size: int64(len(s.objects[key]))})
	}
	return page, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls[key]++
	if failures := s.getFailures[key]; len(failures) > 0 {
		s.getFailures[key] = failures[1:]
		return nil, failures[0]
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	// callers own the returned slice
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
