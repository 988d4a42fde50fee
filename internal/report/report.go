package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Kind tells which comparison a Report holds
type Kind string

const (
	KindTasks    Kind = "tasks"
	KindVersions Kind = "versions"
)

// Report is the result of comparing two builds
type Report struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Left      string
	Right     string
	Kind      Kind

	// Task comparison
	Metric     domain.Metric
	MinVal     float64
	MinAbsDiff float64
	SortBy     []diff.SortKey
	OnlyTasks  []string
	Tasks      []diff.TaskDiff
	Summary    diff.Summary

	// Version comparison
	Versions *diff.VersionDiff

	// How the left and right sources were read
	Reads []*domain.ReadMetrics
}
