package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SteelMorgan/buildstats-diff/internal/buildstats"
	"github.com/SteelMorgan/buildstats-diff/internal/cache"
	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/SteelMorgan/buildstats-diff/internal/observability"
	"github.com/SteelMorgan/buildstats-diff/internal/report"
	"github.com/SteelMorgan/buildstats-diff/internal/writer"
)

// CompareOptions selects what is compared
type CompareOptions struct {
	// VersionsOnly compares package versions instead of task metrics.
	// Multi-build averaging is never used for it.
	VersionsOnly bool

	Metric     domain.Metric
	MinVal     float64
	MinAbsDiff float64
	SortBy     []diff.SortKey
	OnlyTasks  []string

	// Multi allows a directory of several builds to be averaged
	Multi bool
}

// CompareService reads two buildstats sources and compares them
type CompareService struct {
	cache  cache.Store
	writer writer.DiffWriter
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a CompareService
type Option func(*CompareService)

// WithCache enables the parse cache
func WithCache(store cache.Store) Option {
	return func(s *CompareService) { s.cache = store }
}

// WithWriter enables export of reports
func WithWriter(w writer.DiffWriter) Option {
	return func(s *CompareService) { s.writer = w }
}

// WithLogger sets the logger passed down to the readers
func WithLogger(logger zerolog.Logger) Option {
	return func(s *CompareService) { s.logger = logger }
}

// NewCompareService creates a new compare service
func NewCompareService(opts ...Option) *CompareService {
	s := &CompareService{
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compare reads both sources and returns the comparison report.
// Nothing is returned unless both sources were read successfully.
func (s *CompareService) Compare(ctx context.Context, left, right string, opts CompareOptions) (r *report.Report, err error) {
	ctx, span := observability.StartSpan(ctx, "buildstats.compare",
		attribute.String("left", left),
		attribute.String("right", right),
		attribute.Bool("versions_only", opts.VersionsOnly),
	)
	defer func() { observability.EndSpan(span, err, "compare") }()

	multi := opts.Multi && !opts.VersionsOnly

	bs1, m1, err := s.Read(ctx, left, multi)
	if err != nil {
		return nil, err
	}
	bs2, m2, err := s.Read(ctx, right, multi)
	if err != nil {
		return nil, err
	}

	r = &report.Report{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Left:      left,
		Right:     right,
		Reads:     []*domain.ReadMetrics{m1, m2},
	}

	_, diffSpan := observability.StartSpan(ctx, "buildstats.diff")
	if opts.VersionsOnly {
		r.Kind = report.KindVersions
		r.Versions = diff.Versions(bs1, bs2)
	} else {
		taskOpts := diff.TaskOptions{
			Metric:     opts.Metric,
			MinVal:     opts.MinVal,
			MinAbsDiff: opts.MinAbsDiff,
			OnlyTasks:  opts.OnlyTasks,
		}
		r.Kind = report.KindTasks
		r.Metric = opts.Metric
		r.MinVal = opts.MinVal
		r.MinAbsDiff = opts.MinAbsDiff
		r.SortBy = opts.SortBy
		r.OnlyTasks = opts.OnlyTasks
		r.Tasks = diff.Tasks(bs1, bs2, taskOpts)
		diff.Sort(r.Tasks, opts.SortBy)
		r.Summary = diff.Cumulative(bs1, bs2, taskOpts)
		diffSpan.SetAttributes(attribute.Int("task_diffs", len(r.Tasks)))
	}
	observability.EndSpan(diffSpan, nil, "diff")

	log.Debug().
		Str("report_id", r.ID.String()).
		Str("kind", string(r.Kind)).
		Int("task_diffs", len(r.Tasks)).
		Msg("Comparison finished")

	return r, nil
}

// Export writes the report with the configured writer. It is a no-op
// without one.
func (s *CompareService) Export(ctx context.Context, r *report.Report) (err error) {
	if s.writer == nil {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "buildstats.export",
		attribute.String("report_id", r.ID.String()))
	defer func() { observability.EndSpan(span, err, "export") }()

	switch r.Kind {
	case report.KindTasks:
		err = s.writer.WriteTaskDiffs(ctx, r)
	case report.KindVersions:
		err = s.writer.WriteVersionDiff(ctx, r)
	}
	if err != nil {
		return err
	}

	for _, m := range r.Reads {
		if err = s.writer.WriteReadMetrics(ctx, r, m); err != nil {
			return err
		}
	}
	return nil
}

// Read resolves and reads one source, consulting the cache first
func (s *CompareService) Read(ctx context.Context, path string, multi bool) (bs domain.BuildStats, metrics *domain.ReadMetrics, err error) {
	ctx, span := observability.StartSpan(ctx, "buildstats.read", attribute.String("path", path))
	defer func() { observability.EndSpan(span, err, "read") }()

	src, err := buildstats.ResolveSource(path)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("kind", src.Kind.String()))

	// Several builds without opt-in are rejected by the reader; never serve
	// them from a cache filled by a multi run
	cacheable := s.cache != nil && (multi || src.Kind != buildstats.SourceMulti || len(src.Members) <= 1)

	var fp cache.Fingerprint
	if cacheable {
		start := time.Now()
		if fp, err = cache.Compute(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot fingerprint source, cache disabled for it")
			cacheable = false
		} else if cached, cerr := s.cache.Get(ctx, src.Kind.String(), path, fp); cerr != nil {
			log.Warn().Err(cerr).Str("path", path).Msg("Cache lookup failed")
		} else if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			log.Debug().Str("path", path).Msg("Buildstats served from cache")
			return cached, cachedMetrics(src, cached, start), nil
		}
	}

	reader := buildstats.NewReader(buildstats.WithMulti(multi), buildstats.WithLogger(s.logger))
	bs, metrics, err = reader.ReadSource(src)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("path", path).
		Str("kind", metrics.SourceKind).
		Int("runs", metrics.Runs).
		Uint32("packages", metrics.PackagesParsed).
		Uint64("tasks", metrics.TasksParsed).
		Uint64("parsing_time_ms", metrics.ParsingTimeMs()).
		Msg("Buildstats read")

	if cacheable {
		if cerr := s.cache.Set(ctx, src.Kind.String(), path, fp, bs); cerr != nil {
			log.Warn().Err(cerr).Str("path", path).Msg("Failed to cache buildstats")
		}
	}

	return bs, metrics, nil
}

// cachedMetrics describes a collection taken from the cache
func cachedMetrics(src *buildstats.Source, bs domain.BuildStats, start time.Time) *domain.ReadMetrics {
	m := &domain.ReadMetrics{
		SourcePath:     src.Path,
		SourceKind:     src.Kind.String(),
		Runs:           1,
		PackagesParsed: uint32(len(bs)),
		CacheHit:       true,
		StartTime:      start,
		EndTime:        time.Now(),
	}
	for _, pkg := range bs {
		for _, runs := range pkg.Tasks {
			m.TasksParsed += uint64(len(runs))
			m.Runs = max(m.Runs, len(runs))
		}
	}
	return m
}

// String describes the options for logging
func (o CompareOptions) String() string {
	if o.VersionsOnly {
		return "versions"
	}
	return fmt.Sprintf("%s min_val=%g min_absdiff=%g sort=%v", o.Metric, o.MinVal, o.MinAbsDiff, o.SortBy)
}
