package writer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"

	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/SteelMorgan/buildstats-diff/internal/report"
)

// ClickHouse DateTime64 valid range: 1925-01-01 to 2283-11-11
var (
	minClickHouseDateTime = time.Date(1925, 1, 1, 0, 0, 0, 0, time.UTC)
	maxClickHouseDateTime = time.Date(2283, 11, 11, 23, 59, 59, 999999999, time.UTC)
)

// ensureValidDateTime clamps zero or out of range times to the minimum
// ClickHouse DateTime64 value
func ensureValidDateTime(t time.Time) time.Time {
	if t.IsZero() || t.Before(minClickHouseDateTime) || t.After(maxClickHouseDateTime) {
		return minClickHouseDateTime
	}
	return t
}

// Change kinds stored in version_diff
const (
	ChangeNew      = "new"
	ChangeDropped  = "dropped"
	ChangeEpoch    = "epoch"
	ChangeVersion  = "version"
	ChangeRevision = "revision"
)

// ClickHouseWriter writes reports into ClickHouse tables of one database
type ClickHouseWriter struct {
	exec     Executor
	database string
}

var _ DiffWriter = (*ClickHouseWriter)(nil)

// NewClickHouseWriter creates a writer for tables in database
func NewClickHouseWriter(exec Executor, database string) *ClickHouseWriter {
	return &ClickHouseWriter{exec: exec, database: database}
}

// EnsureSchema creates the database and tables when missing
func (w *ClickHouseWriter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(w.database) {
		if err := w.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// WriteTaskDiffs writes a task report
func (w *ClickHouseWriter) WriteTaskDiffs(ctx context.Context, r *report.Report) error {
	rows := taskDiffRows(r)
	if len(rows) == 0 {
		return nil
	}

	err := w.exec.SendBatch(ctx, "INSERT INTO "+w.database+".task_diff", func(batch driver.Batch) error {
		for _, row := range rows {
			if err := batch.Append(row...); err != nil {
				return fmt.Errorf("failed to append task diff: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write task diffs: %w", err)
	}

	log.Info().
		Str("report_id", r.ID.String()).
		Int("rows", len(rows)).
		Msg("Task diffs exported")
	return nil
}

// WriteVersionDiff writes a version report
func (w *ClickHouseWriter) WriteVersionDiff(ctx context.Context, r *report.Report) error {
	rows := versionDiffRows(r)
	if len(rows) == 0 {
		return nil
	}

	err := w.exec.SendBatch(ctx, "INSERT INTO "+w.database+".version_diff", func(batch driver.Batch) error {
		for _, row := range rows {
			if err := batch.Append(row...); err != nil {
				return fmt.Errorf("failed to append version diff: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write version diff: %w", err)
	}

	log.Info().
		Str("report_id", r.ID.String()).
		Int("rows", len(rows)).
		Msg("Version diff exported")
	return nil
}

// WriteReadMetrics writes source read metrics
func (w *ClickHouseWriter) WriteReadMetrics(ctx context.Context, r *report.Report, m *domain.ReadMetrics) error {
	row := readMetricsRow(r, m)
	err := w.exec.SendBatch(ctx, "INSERT INTO "+w.database+".read_metrics", func(batch driver.Batch) error {
		return batch.Append(row...)
	})
	if err != nil {
		return fmt.Errorf("failed to write read metrics: %w", err)
	}
	return nil
}

// taskDiffRows returns task_diff rows in column order; the cumulative
// summary is stored as a row with empty pkg and task
func taskDiffRows(r *report.Report) [][]any {
	if r.Kind != report.KindTasks {
		return nil
	}

	created := ensureValidDateTime(r.CreatedAt)
	metric := string(r.Metric)
	rows := make([][]any, 0, len(r.Tasks)+1)

	for _, d := range r.Tasks {
		rows = append(rows, []any{
			r.ID,
			created,
			r.Left,
			r.Right,
			metric,
			d.Pkg,
			d.PkgOp,
			d.Task,
			d.TaskOp,
			d.Value1,
			d.Value2,
			d.AbsDiff,
			nullableFloat(d.RelDiff),
			rowHash(r.Left, r.Right, metric, d.Pkg, d.Task),
		})
	}

	s := r.Summary
	rows = append(rows, []any{
		r.ID,
		created,
		r.Left,
		r.Right,
		metric,
		"",
		diff.OpNone,
		"",
		diff.OpNone,
		s.Total1,
		s.Total2,
		s.AbsDiff,
		nullableFloat(s.RelDiff),
		rowHash(r.Left, r.Right, metric),
	})

	return rows
}

// versionDiffRows returns version_diff rows in column order
func versionDiffRows(r *report.Report) [][]any {
	if r.Kind != report.KindVersions || r.Versions == nil {
		return nil
	}

	created := ensureValidDateTime(r.CreatedAt)
	var rows [][]any
	add := func(change, name, leftNEVR, rightNEVR string) {
		rows = append(rows, []any{
			r.ID,
			created,
			r.Left,
			r.Right,
			change,
			name,
			leftNEVR,
			rightNEVR,
			rowHash(r.Left, r.Right, "version", name),
		})
	}

	v := r.Versions
	for _, pkg := range v.New {
		add(ChangeNew, pkg.Name, "", pkg.NEVR())
	}
	for _, pkg := range v.Dropped {
		add(ChangeDropped, pkg.Name, pkg.NEVR(), "")
	}
	for _, c := range v.EpochChanged {
		add(ChangeEpoch, c.Name, c.Left.NEVR(), c.Right.NEVR())
	}
	for _, c := range v.VersionChanged {
		add(ChangeVersion, c.Name, c.Left.NEVR(), c.Right.NEVR())
	}
	for _, c := range v.RevisionChanged {
		add(ChangeRevision, c.Name, c.Left.NEVR(), c.Right.NEVR())
	}

	return rows
}

func readMetricsRow(r *report.Report, m *domain.ReadMetrics) []any {
	return []any{
		r.ID,
		ensureValidDateTime(r.CreatedAt),
		m.SourcePath,
		m.SourceKind,
		uint32(m.Runs),
		m.FilesRead,
		m.PackagesParsed,
		m.TasksParsed,
		m.CacheHit,
		m.ParsingTimeMs(),
	}
}

// nullableFloat maps infinite values to NULL
func nullableFloat(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func schemaStatements(db string) []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.task_diff (
	report_id UUID,
	created_at DateTime64(3),
	left_source String,
	right_source String,
	metric LowCardinality(String),
	pkg String,
	pkg_op LowCardinality(String),
	task String,
	task_op LowCardinality(String),
	value1 Float64,
	value2 Float64,
	absdiff Float64,
	reldiff Nullable(Float64),
	row_hash String
) ENGINE = ReplacingMergeTree(created_at)
ORDER BY (metric, row_hash)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.version_diff (
	report_id UUID,
	created_at DateTime64(3),
	left_source String,
	right_source String,
	change LowCardinality(String),
	pkg String,
	left_nevr String,
	right_nevr String,
	row_hash String
) ENGINE = ReplacingMergeTree(created_at)
ORDER BY row_hash`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.read_metrics (
	report_id UUID,
	created_at DateTime64(3),
	source_path String,
	source_kind LowCardinality(String),
	runs UInt32,
	files_read UInt32,
	packages_parsed UInt32,
	tasks_parsed UInt64,
	cache_hit Bool,
	parsing_time_ms UInt64
) ENGINE = MergeTree
ORDER BY (created_at, source_path)`,
	}
}
