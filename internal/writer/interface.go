package writer

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/SteelMorgan/buildstats-diff/internal/report"
)

// DiffWriter exports comparison results
type DiffWriter interface {
	// WriteTaskDiffs writes the task rows and the cumulative summary of a task report
	WriteTaskDiffs(ctx context.Context, r *report.Report) error

	// WriteVersionDiff writes one row per changed package of a version report
	WriteVersionDiff(ctx context.Context, r *report.Report) error

	// WriteReadMetrics writes how a source of the report was read
	WriteReadMetrics(ctx context.Context, r *report.Report, metrics *domain.ReadMetrics) error
}

// Executor is the part of the ClickHouse client the writer needs
type Executor interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
	SendBatch(ctx context.Context, insert string, fill func(driver.Batch) error) error
}
