package object_store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/filter"
	"github.com/turbot/tailpipe-log-summary/logging"
	"github.com/turbot/tailpipe-log-summary/metrics"
	"github.com/turbot/tailpipe-log-summary/rate_limiter"
	"github.com/turbot/tailpipe-log-summary/types"
)

const DefaultMaxAttempts = 3

var errNoMatchingObjects = errors.New("no objects match the key prefix")

// Fetcher lists and downloads the objects selected by a filter.
// Every store call is rate limited and transient failures are retried with
// exponential jitter backoff, up to MaxAttempts attempts per call.
type Fetcher struct {
	store       Store
	maxAttempts int
	backoff     BackoffDelayer
	extensions  types.ExtensionLookup
	limiter     *rate_limiter.APILimiter
	metrics     *metrics.Metrics
}

type FetcherOption func(*Fetcher)

func WithMaxAttempts(maxAttempts int) FetcherOption {
	return func(f *Fetcher) {
		if maxAttempts > 0 {
			f.maxAttempts = maxAttempts
		}
	}
}

func WithBackoff(backoff BackoffDelayer) FetcherOption {
	return func(f *Fetcher) {
		if backoff != nil {
			f.backoff = backoff
		}
	}
}

// WithExtensions restricts listing to keys with one of the given extensions
func WithExtensions(extensions []string) FetcherOption {
	return func(f *Fetcher) {
		f.extensions = types.NewExtensionLookup(extensions)
	}
}

func WithLimiter(limiter *rate_limiter.APILimiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = limiter
	}
}

func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

func NewFetcher(store Store, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		backoff:     NewExponentialJitterBackoff(defaultMinRetryDelay, defaultMaxRetryDelay),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// List yields every object under prefix, following continuation tokens until the listing is exhausted.
// A prefix which matches no object yields a *error_types.ResourceNotFoundError.
// Any error ends the sequence.
func (f *Fetcher) List(ctx context.Context, prefix string) iter.Seq2[types.ObjectInfo, error] {
	return func(yield func(types.ObjectInfo, error) bool) {
		matched := 0
		pageToken := ""
		for {
			page, err := f.listPage(ctx, prefix, pageToken)
			if err != nil {
				yield(types.ObjectInfo{}, err)
				return
			}
			f.metrics.ListPageRead()

			for _, info := range page.Objects {
				if !f.extensions.IsValid(info.Key) {
					continue
				}
				matched++
				if !yield(info, nil) {
					return
				}
			}

			if page.NextPageToken == "" {
				break
			}
			if page.NextPageToken == pageToken {
				yield(types.ObjectInfo{}, fmt.Errorf("listing %s did not advance past page token %q", f.store.Location(), pageToken))
				return
			}
			pageToken = page.NextPageToken
		}

		if matched == 0 {
			yield(types.ObjectInfo{}, error_types.NewResourceNotFoundError(f.store.Location(), prefix, errNoMatchingObjects))
		}
	}
}

func (f *Fetcher) listPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	var page *Page
	_, err := f.withRetry(ctx, "list", prefix, func() error {
		var err error
		page, err = f.store.ListPage(ctx, prefix, pageToken)
		return err
	})
	if err != nil {
		var notFound *error_types.ResourceNotFoundError
		if errors.As(err, &notFound) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list objects in %s: %w", f.store.Location(), err)
	}
	return page, nil
}

// Fetch downloads a single object. Once the retry budget is spent the failure is
// returned as a *error_types.FetchFailedError. Cancellation is returned as the context error.
func (f *Fetcher) Fetch(ctx context.Context, key string) (types.RawObject, error) {
	var data []byte
	attempts, err := f.withRetry(ctx, "get", key, func() error {
		var err error
		data, err = f.store.Get(ctx, key)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return types.RawObject{}, ctx.Err()
		}
		f.metrics.FetchFailed()
		return types.RawObject{}, &error_types.FetchFailedError{Key: key, Attempts: attempts, Err: err}
	}

	f.metrics.ObjectFetched()
	return types.RawObject{Key: key, Data: data}, nil
}

// ListAndStream lists the objects selected by spec and fetches each in turn.
// A per-object *error_types.FetchFailedError is yielded and the stream continues;
// listing and context errors end the stream.
func (f *Fetcher) ListAndStream(ctx context.Context, spec filter.Spec) iter.Seq2[types.RawObject, error] {
	return func(yield func(types.RawObject, error) bool) {
		for info, err := range f.List(ctx, spec.KeyPrefix()) {
			if err != nil {
				yield(types.RawObject{}, err)
				return
			}
			obj, err := f.Fetch(ctx, info.Key)
			if !yield(obj, err) {
				return
			}
			if err != nil && ctx.Err() != nil {
				return
			}
		}
	}
}

// withRetry calls fn until it succeeds, fails with a non-retryable error or the attempt budget is spent.
// It returns the number of attempts made.
func (f *Fetcher) withRetry(ctx context.Context, op, target string, fn func() error) (int, error) {
	for attempt := 1; ; attempt++ {
		release, err := f.limiter.Acquire(ctx)
		if err != nil {
			return attempt, err
		}
		err = fn()
		release()
		if err == nil {
			return attempt, nil
		}
		if !retryable(ctx, err) || attempt >= f.maxAttempts {
			return attempt, err
		}

		delay, _ := f.backoff.BackoffDelay(attempt, err)
		f.metrics.FetchRetried()
		logging.FromContext(ctx).Debug("retrying store call", "op", op, "target", target, "attempt", attempt, "delay", delay.String(), "error", err)

		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var notFound *error_types.ResourceNotFoundError
	if errors.As(err, &notFound) {
		return false
	}
	return !errors.Is(err, ErrObjectNotFound)
}
