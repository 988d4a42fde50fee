package buildstats

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/rs/zerolog"
)

// Reader reads buildstats sources into collections
type Reader struct {
	multi  bool
	logger zerolog.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithMulti allows averaging over a directory holding several builds
func WithMulti(multi bool) Option {
	return func(r *Reader) { r.multi = multi }
}

// WithLogger sets the diagnostic sink. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// NewReader creates a reader
func NewReader(opts ...Option) *Reader {
	r := &Reader{logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Read resolves path and reads it
func (r *Reader) Read(path string) (domain.BuildStats, *domain.ReadMetrics, error) {
	src, err := ResolveSource(path)
	if err != nil {
		return nil, nil, err
	}
	return r.ReadSource(src)
}

// ReadSource reads an already resolved source
func (r *Reader) ReadSource(src *Source) (domain.BuildStats, *domain.ReadMetrics, error) {
	metrics := &domain.ReadMetrics{
		SourcePath: src.Path,
		SourceKind: src.Kind.String(),
		StartTime:  time.Now(),
	}

	var (
		bs  domain.BuildStats
		err error
	)
	switch src.Kind {
	case SourceJSONFile:
		bs, err = r.readJSON(src.Path, metrics)
	case SourceTextDirectory:
		bs, err = r.readDirectory(src.Path, metrics)
	case SourceMulti:
		bs, err = r.readMulti(src, metrics)
	default:
		err = fmt.Errorf("%w: unsupported source kind %d", domain.ErrFormat, src.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	if metrics.Runs == 0 {
		metrics.Runs = 1
	}
	metrics.PackagesParsed = uint32(len(bs))
	metrics.EndTime = time.Now()
	return bs, metrics, nil
}

func (r *Reader) readJSON(path string, metrics *domain.ReadMetrics) (domain.BuildStats, error) {
	r.logger.Debug().Str("path", path).Msg("Reading JSON buildstats")

	bs, err := ReadJSONFile(path)
	if err != nil {
		return nil, err
	}
	metrics.FilesRead++
	for _, pkg := range bs {
		for _, runs := range pkg.Tasks {
			metrics.TasksParsed += uint64(len(runs))
		}
	}
	return bs, nil
}

// ReadDirectory reads a buildstats directory: one subdirectory per package,
// one text file per task
func ReadDirectory(path string) (domain.BuildStats, error) {
	return NewReader().readDirectory(path, &domain.ReadMetrics{})
}

func (r *Reader) readDirectory(path string, metrics *domain.ReadMetrics) (domain.BuildStats, error) {
	if !IsBuildstatsDir(path) {
		return nil, fmt.Errorf("%w: %s does not look like a buildstats directory (no %s file)", domain.ErrParse, path, MarkerFile)
	}
	r.logger.Debug().Str("path", path).Msg("Reading buildstats directory")

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	bs := make(domain.BuildStats)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name, epoch, version, revision, err := SplitNEVR(entry.Name())
		if err != nil {
			return nil, err
		}
		if _, exists := bs[name]; exists {
			return nil, fmt.Errorf("%w: cannot handle multiple versions of the same package (%s)", domain.ErrMerge, name)
		}

		pkg := domain.NewPackageStats(name, epoch, version, revision)
		pkgDir := filepath.Join(path, entry.Name())
		tasks, err := os.ReadDir(pkgDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", pkgDir, err)
		}
		for _, taskEntry := range tasks {
			if !taskEntry.Type().IsRegular() {
				continue
			}
			task, err := ParseTaskFile(filepath.Join(pkgDir, taskEntry.Name()))
			if err != nil {
				return nil, err
			}
			pkg.Tasks[taskEntry.Name()] = domain.TaskRuns{*task}
			metrics.FilesRead++
			metrics.TasksParsed++
		}
		bs[name] = pkg
	}

	return bs, nil
}

func (r *Reader) readMulti(src *Source, metrics *domain.ReadMetrics) (domain.BuildStats, error) {
	if len(src.Members) > 1 {
		if !r.multi {
			return nil, fmt.Errorf("%w: multiple buildstats found in %q, give a single buildstats directory or enable multi-build averaging",
				domain.ErrArgument, src.Path)
		}
		r.logger.Info().
			Int("builds", len(src.Members)).
			Str("path", src.Path).
			Msg("Averaging over multiple buildstats")
	}

	var bs domain.BuildStats
	for i := range src.Members {
		member := &src.Members[i]
		if member.Kind == SourceMulti {
			return nil, fmt.Errorf("%w: nested build directories are not supported: %s", domain.ErrFormat, member.Path)
		}

		var (
			memberBS domain.BuildStats
			err      error
		)
		if member.Kind == SourceJSONFile {
			memberBS, err = r.readJSON(member.Path, metrics)
		} else {
			memberBS, err = r.readDirectory(member.Path, metrics)
		}
		if err != nil {
			return nil, err
		}

		if bs == nil {
			bs = memberBS
		} else if err := Aggregate(bs, memberBS); err != nil {
			return nil, fmt.Errorf("%s: %w", member.Path, err)
		}
		metrics.Runs++
	}

	return bs, nil
}
