// Package pipeline runs a summary: it lists the objects selected by a filter,
// fetches them on a bounded worker pool, parses each into records and folds the
// records into a report.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/turbot/tailpipe-log-summary/aggregator"
	"github.com/turbot/tailpipe-log-summary/artifact_loader"
	"github.com/turbot/tailpipe-log-summary/config"
	"github.com/turbot/tailpipe-log-summary/context_values"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/filter"
	"github.com/turbot/tailpipe-log-summary/logging"
	"github.com/turbot/tailpipe-log-summary/metrics"
	"github.com/turbot/tailpipe-log-summary/object_store"
	"github.com/turbot/tailpipe-log-summary/parser"
	"golang.org/x/sync/errgroup"
)

// StoreOpener opens the store for a store location
type StoreOpener func(ctx context.Context, location string, conns object_store.Connections) (object_store.Store, error)

type Pipeline struct {
	cfg       *config.Config
	openStore StoreOpener
	metrics   *metrics.Metrics
}

type PipelineOption func(*Pipeline)

// WithStore makes every run read from store, whatever the store location of the filter
func WithStore(store object_store.Store) PipelineOption {
	return func(p *Pipeline) {
		p.openStore = func(context.Context, string, object_store.Connections) (object_store.Store, error) {
			return store, nil
		}
	}
}

func WithStoreOpener(opener StoreOpener) PipelineOption {
	return func(p *Pipeline) {
		p.openStore = opener
	}
}

func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func New(cfg *config.Config, opts ...PipelineOption) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		cfg:       cfg,
		openStore: object_store.Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	return p
}

func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Run summarises the objects selected by spec.
//
// The format is resolved before the store is touched. A missing store location, or a prefix
// selecting no object, fails with a *error_types.ResourceNotFoundError and no report.
// Objects which cannot be fetched within the retry budget are skipped, unless
// fail_on_fetch_error is set; malformed lines and objects are counted as parse errors.
func (p *Pipeline) Run(ctx context.Context, spec filter.Spec) (*aggregator.Report, error) {
	ctx = context_values.WithExecutionId(ctx, uuid.NewString())
	logger := logging.FromContext(ctx)

	logParser, err := parser.Resolve(spec.Format())
	if err != nil {
		return nil, err
	}

	store, err := p.openStore(ctx, spec.StoreLocation(), p.cfg.Connections())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	logger.Info("starting summary", "filter", spec.String(), "store", store.Identifier(), "config", p.cfg.String())

	fetcher := object_store.NewFetcher(store,
		object_store.WithMaxAttempts(p.cfg.MaxAttempts),
		object_store.WithBackoff(object_store.NewExponentialJitterBackoff(p.cfg.MinRetryDelay(), 0)),
		object_store.WithExtensions(p.cfg.Extensions),
		object_store.WithLimiter(p.cfg.Limiter()),
		object_store.WithMetrics(p.metrics),
	)

	workers := max(p.cfg.Workers, 1)
	g, gctx := errgroup.WithContext(ctx)

	// listing is sequential, each page depends on the previous continuation token
	keys := make(chan string, workers)
	g.Go(func() error {
		defer close(keys)
		for info, err := range fetcher.List(gctx, spec.KeyPrefix()) {
			if err != nil {
				return err
			}
			select {
			case keys <- info.Key:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// each worker folds into its own aggregator, merged once all are done
	partials := make([]*aggregator.Aggregator, workers)
	for i := range partials {
		partial := aggregator.New(aggregator.DefaultTopN)
		partials[i] = partial
		g.Go(func() error {
			for key := range keys {
				if err := p.processObject(gctx, fetcher, logParser, key, partial); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, errors.Join(ctxErr, err)
		}
		return nil, err
	}

	result := aggregator.New(aggregator.DefaultTopN)
	for _, partial := range partials {
		result.Merge(partial)
	}
	report := result.Report()

	logger.Info("summary complete", "total_logs", report.TotalLogs, "objects", report.Objects, "skipped_objects", report.SkippedObjects, "parse_errors", report.ParseErrors)
	return &report, nil
}

func (p *Pipeline) processObject(ctx context.Context, fetcher *object_store.Fetcher, logParser parser.Parser, key string, agg *aggregator.Aggregator) error {
	logger := logging.FromContext(ctx)

	obj, err := fetcher.Fetch(ctx, key)
	if err != nil {
		if ctx.Err() != nil || p.cfg.FailOnFetchError || !error_types.IsSkippable(err) {
			return err
		}
		logger.Warn("skipping object which could not be fetched", "key", key, "error", err)
		agg.AddSkippedObject()
		return nil
	}

	obj, err = artifact_loader.Load(ctx, obj)
	if err != nil {
		if !error_types.IsSkippable(err) {
			return err
		}
		logger.Warn("skipping object which could not be decoded", "key", key, "error", err)
		agg.AddSkippedObject()
		agg.AddParseError()
		p.metrics.ParseError()
		return nil
	}

	var records int64
	for record, err := range logParser.Parse(ctx, obj) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug("malformed input", "key", key, "error", err)
			agg.AddParseError()
			p.metrics.ParseError()
			continue
		}
		agg.Add(record)
		records++
	}
	agg.AddObject()
	p.metrics.RecordsAggregated(records)
	return nil
}

// Run summarises the objects selected by spec with the default config
func Run(ctx context.Context, spec filter.Spec) (*aggregator.Report, error) {
	return New(config.Default()).Run(ctx, spec)
}
