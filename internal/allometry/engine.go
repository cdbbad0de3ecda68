package allometry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greencanopy/allometree/internal/errors"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
)

// RecordSource supplies equation records for an index build.
type RecordSource interface {
	// LoadRecords returns every equation record in source order.
	LoadRecords(ctx context.Context) ([]EquationRecord, error)
	// Name identifies the source in logs and metrics ("csv", "database").
	Name() string
}

// FileSource reads records from a canonical equation table on disk.
type FileSource struct {
	Path string
}

// LoadRecords implements RecordSource.
func (s FileSource) LoadRecords(ctx context.Context) ([]EquationRecord, error) {
	return LoadRecordsFile(ctx, s.Path)
}

// Name implements RecordSource.
func (s FileSource) Name() string { return "csv" }

// Engine answers biomass queries against the most recently built index.
// Queries never block on Reload; they see either the old or the new index.
type Engine struct {
	source  RecordSource
	current atomic.Pointer[Index]
	metrics *metrics.AllometryMetrics
	log     logger.Logger

	reloadMu sync.Mutex // serializes Reload
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics records index builds and estimates on m.
func WithMetrics(m *metrics.AllometryMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger overrides the package logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds the initial index from source.
func NewEngine(ctx context.Context, source RecordSource, opts ...EngineOption) (*Engine, error) {
	if source == nil {
		return nil, errors.Newf("record source is required").
			Component("allometry").
			Category(errors.CategoryValidation).
			Build()
	}

	e := &Engine{source: source}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = GetLogger()
	}

	if _, err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineFromFile builds an engine from the canonical equation table at path.
func NewEngineFromFile(path string, opts ...EngineOption) (*Engine, error) {
	return NewEngine(context.Background(), FileSource{Path: path}, opts...)
}

// NewEngineFromIndex wraps a prebuilt index. Reload is unavailable on such an engine.
func NewEngineFromIndex(idx *Index, opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = GetLogger()
	}
	e.swap(idx)
	return e
}

// Reload rebuilds the index from the engine's source and swaps it in.
// On failure the current index stays active.
func (e *Engine) Reload(ctx context.Context) (BuildStats, error) {
	if e.source == nil {
		return BuildStats{}, errors.Newf("engine has no record source to reload from").
			Component("allometry").
			Category(errors.CategoryState).
			Build()
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	records, err := e.source.LoadRecords(ctx)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordIndexBuild(e.source.Name(), time.Since(start).Seconds(), err)
		}
		e.log.Error("failed to load equation records",
			logger.String("source", e.source.Name()),
			logger.Error(err))
		return BuildStats{}, err
	}

	idx := Build(records)
	elapsed := time.Since(start)
	e.swap(idx)

	stats := idx.Stats()
	if e.metrics != nil {
		e.metrics.RecordIndexBuild(e.source.Name(), elapsed.Seconds(), nil)
	}
	e.log.Info("equation index built",
		logger.String("source", e.source.Name()),
		logger.Int("records", stats.Seen),
		logger.Int("equations", idx.Len()),
		logger.Duration("elapsed", elapsed))
	e.log.Debug("equation index skipped records",
		logger.Int("skipped", stats.TotalSkipped()),
		logger.Int("overwritten", stats.Overwritten))

	return stats, nil
}

func (e *Engine) swap(idx *Index) {
	if idx == nil {
		idx = Build(nil)
	}
	e.current.Store(idx)

	if e.metrics != nil {
		stats := idx.Stats()
		skipped := make(map[string]int, len(stats.Skipped))
		for reason, n := range stats.Skipped {
			skipped[string(reason)] = n
		}
		e.metrics.SetIndexStats(idx.Len(), stats.Seen, stats.Overwritten, skipped, float64(time.Now().Unix()))
	}
}

// Index returns the active index snapshot.
func (e *Engine) Index() *Index {
	return e.current.Load()
}

// SourceName returns the name of the engine's record source, or "" for a fixed index.
func (e *Engine) SourceName() string {
	if e.source == nil {
		return ""
	}
	return e.source.Name()
}

// EstimateAGB returns above-ground biomass in kilograms for a tree of dbhCM in the
// given species and region. It returns 0 when no equation is indexed for the pair.
func (e *Engine) EstimateAGB(dbhCM float64, species, region string) float64 {
	agb, _, _ := e.Estimate(dbhCM, species, region)
	return agb
}

// Estimate is EstimateAGB that also reports the coefficients used and whether a
// model was found, so callers can tell a zero estimate from a missing model.
func (e *Engine) Estimate(dbhCM float64, species, region string) (agb float64, coeffs CoefficientSet, found bool) {
	start := time.Now()
	coeffs, found = e.Index().Lookup(species, region)
	agb = Evaluate(dbhCM, coeffs, found)

	if e.metrics != nil {
		e.metrics.RecordEstimate(found, time.Since(start).Seconds())
	}
	return agb, coeffs, found
}
