package object_store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/filter"
	"github.com/turbot/tailpipe-log-summary/metrics"
	"github.com/turbot/tailpipe-log-summary/types"
)

// zeroBackoff retries without waiting
type zeroBackoff struct{}

func (zeroBackoff) BackoffDelay(int, error) (time.Duration, error) { return 0, nil }

var errTransient = errors.New("503 slow down")

func newTestStore(pageSize int, keys ...string) *MemoryStore {
	s := NewMemoryStore("mem://logs", pageSize)
	for _, k := range keys {
		s.Put(k, []byte("content of "+k))
	}
	return s
}

func listKeys(t *testing.T, f *Fetcher, prefix string) ([]string, error) {
	t.Helper()
	var keys []string
	for info, err := range f.List(context.Background(), prefix) {
		if err != nil {
			return keys, err
		}
		keys = append(keys, info.Key)
	}
	return keys, nil
}

func TestFetcher_List(t *testing.T) {
	tests := []struct {
		name       string
		pageSize   int
		keys       []string
		prefix     string
		extensions []string
		want       []string
		wantErr    bool
	}{
		{
			name:     "single page",
			pageSize: 10,
			keys:     []string{"app/a.log", "app/b.log", "other/c.log"},
			prefix:   "app/",
			want:     []string{"app/a.log", "app/b.log"},
		},
		{
			name:     "many pages",
			pageSize: 2,
			keys:     []string{"app/1", "app/2", "app/3", "app/4", "app/5"},
			prefix:   "app/",
			want:     []string{"app/1", "app/2", "app/3", "app/4", "app/5"},
		},
		{
			name:       "extension filter looks through compression",
			pageSize:   2,
			keys:       []string{"app/a.log", "app/b.json", "app/c.log.gz"},
			prefix:     "app/",
			extensions: []string{".log"},
			want:       []string{"app/a.log", "app/c.log.gz"},
		},
		{
			name:     "nothing matches the prefix",
			pageSize: 10,
			keys:     []string{"app/a.log"},
			prefix:   "nope/",
			wantErr:  true,
		},
		{
			name:       "nothing matches the extensions",
			pageSize:   10,
			keys:       []string{"app/a.json"},
			prefix:     "app/",
			extensions: []string{".log"},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(newTestStore(tt.pageSize, tt.keys...), WithExtensions(tt.extensions), WithBackoff(zeroBackoff{}))
			got, err := listKeys(t, f, tt.prefix)
			if tt.wantErr {
				var notFound *error_types.ResourceNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, tt.prefix, notFound.Prefix)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetcher_ListMissingLocation(t *testing.T) {
	store := newTestStore(10, "app/a.log")
	store.SetMissing(true)
	f := NewFetcher(store, WithBackoff(zeroBackoff{}))

	_, err := listKeys(t, f, "app/")
	assert.Equal(t, error_types.KindNotFound, error_types.KindOf(err))
	// not found is never retried
	assert.Equal(t, 1, store.ListCalls())
}

func TestFetcher_ListRetriesTransientFailures(t *testing.T) {
	store := newTestStore(1, "app/1", "app/2")
	store.FailList(errTransient, errTransient)
	f := NewFetcher(store, WithBackoff(zeroBackoff{}))

	got, err := listKeys(t, f, "app/")
	require.NoError(t, err)
	assert.Equal(t, []string{"app/1", "app/2"}, got)
	// 2 failures, then 2 pages
	assert.Equal(t, 4, store.ListCalls())
}

func TestFetcher_ListGivesUp(t *testing.T) {
	store := newTestStore(10, "app/1")
	store.FailList(errTransient, errTransient, errTransient)
	f := NewFetcher(store, WithBackoff(zeroBackoff{}), WithMaxAttempts(3))

	_, err := listKeys(t, f, "app/")
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, error_types.KindInternal, error_types.KindOf(err))
}

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name         string
		failures     []error
		maxAttempts  int
		wantCalls    int
		wantFailed   bool
		wantAttempts int
	}{
		{name: "first time", maxAttempts: 3, wantCalls: 1},
		{name: "two transient failures", failures: []error{errTransient, errTransient}, maxAttempts: 3, wantCalls: 3},
		{name: "budget spent", failures: []error{errTransient, errTransient, errTransient}, maxAttempts: 3, wantCalls: 3, wantFailed: true, wantAttempts: 3},
		{name: "object vanished", failures: []error{fmt.Errorf("%w: app/a.log", ErrObjectNotFound)}, maxAttempts: 3, wantCalls: 1, wantFailed: true, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(10, "app/a.log")
			store.FailGet("app/a.log", tt.failures...)
			f := NewFetcher(store, WithBackoff(zeroBackoff{}), WithMaxAttempts(tt.maxAttempts))

			obj, err := f.Fetch(context.Background(), "app/a.log")
			assert.Equal(t, tt.wantCalls, store.GetCalls("app/a.log"))
			if tt.wantFailed {
				var failed *error_types.FetchFailedError
				require.ErrorAs(t, err, &failed)
				assert.Equal(t, "app/a.log", failed.Key)
				assert.Equal(t, tt.wantAttempts, failed.Attempts)
				assert.True(t, error_types.IsSkippable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, types.RawObject{Key: "app/a.log", Data: []byte("content of app/a.log")}, obj)
		})
	}
}

func TestFetcher_FetchCancelled(t *testing.T) {
	store := newTestStore(10, "app/a.log")
	store.FailGet("app/a.log", errTransient)
	f := NewFetcher(store, WithBackoff(NewExponentialJitterBackoff(time.Hour, time.Hour)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, "app/a.log")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, error_types.IsSkippable(err))
}

func TestFetcher_ListAndStream(t *testing.T) {
	store := newTestStore(2, "app/1", "app/2", "app/3")
	store.FailGet("app/2", errTransient, errTransient, errTransient)
	m := metrics.New()
	f := NewFetcher(store, WithBackoff(zeroBackoff{}), WithMetrics(m))

	spec, err := filter.New("mem://logs", "app/", "txt")
	require.NoError(t, err)

	var fetched []string
	var failed []string
	for obj, err := range f.ListAndStream(context.Background(), spec) {
		var fetchFailed *error_types.FetchFailedError
		if errors.As(err, &fetchFailed) {
			failed = append(failed, fetchFailed.Key)
			continue
		}
		require.NoError(t, err)
		fetched = append(fetched, obj.Key)
	}
	assert.Equal(t, []string{"app/1", "app/3"}, fetched)
	assert.Equal(t, []string{"app/2"}, failed)

	expected := `
# HELP log_summary_fetch_retries_total Store requests retried after a transient failure.
# TYPE log_summary_fetch_retries_total counter
log_summary_fetch_retries_total 2
# HELP log_summary_objects_fetched_total Objects fetched from the store.
# TYPE log_summary_objects_fetched_total counter
log_summary_objects_fetched_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "log_summary_fetch_retries_total", "log_summary_objects_fetched_total"))
}
