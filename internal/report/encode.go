package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the machine-readable form of a Report.
// Relative differences are null when the left value is zero.
type Document struct {
	ID         string          `json:"id" yaml:"id"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	Left       string          `json:"left" yaml:"left"`
	Right      string          `json:"right" yaml:"right"`
	Kind       Kind            `json:"kind" yaml:"kind"`
	Metric     string          `json:"metric,omitempty" yaml:"metric,omitempty"`
	MinVal     float64         `json:"min_val,omitempty" yaml:"min_val,omitempty"`
	MinAbsDiff float64         `json:"min_absdiff,omitempty" yaml:"min_absdiff,omitempty"`
	Tasks      []TaskRow       `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Cumulative *SummaryRow     `json:"cumulative,omitempty" yaml:"cumulative,omitempty"`
	Versions   *VersionSection `json:"versions,omitempty" yaml:"versions,omitempty"`
}

type TaskRow struct {
	Pkg     string   `json:"pkg" yaml:"pkg"`
	PkgOp   string   `json:"pkg_op" yaml:"pkg_op"`
	Task    string   `json:"task" yaml:"task"`
	TaskOp  string   `json:"task_op" yaml:"task_op"`
	Value1  float64  `json:"value1" yaml:"value1"`
	Value2  float64  `json:"value2" yaml:"value2"`
	AbsDiff float64  `json:"absdiff" yaml:"absdiff"`
	RelDiff *float64 `json:"reldiff" yaml:"reldiff"`
}

type SummaryRow struct {
	Total1  float64  `json:"total1" yaml:"total1"`
	Total2  float64  `json:"total2" yaml:"total2"`
	AbsDiff float64  `json:"absdiff" yaml:"absdiff"`
	RelDiff *float64 `json:"reldiff" yaml:"reldiff"`
}

type VersionSection struct {
	New             []string        `json:"new,omitempty" yaml:"new,omitempty"`
	Dropped         []string        `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	EpochChanged    []VersionChange `json:"epoch_changed,omitempty" yaml:"epoch_changed,omitempty"`
	VersionChanged  []VersionChange `json:"version_changed,omitempty" yaml:"version_changed,omitempty"`
	RevisionChanged []VersionChange `json:"revision_changed,omitempty" yaml:"revision_changed,omitempty"`
}

type VersionChange struct {
	Name  string `json:"name" yaml:"name"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// NewDocument converts a Report into its serializable form
func NewDocument(r *Report) *Document {
	doc := &Document{
		ID:        r.ID.String(),
		CreatedAt: r.CreatedAt,
		Left:      r.Left,
		Right:     r.Right,
		Kind:      r.Kind,
	}

	switch r.Kind {
	case KindTasks:
		doc.Metric = string(r.Metric)
		doc.MinVal = r.MinVal
		doc.MinAbsDiff = r.MinAbsDiff
		doc.Tasks = make([]TaskRow, 0, len(r.Tasks))
		for _, d := range r.Tasks {
			doc.Tasks = append(doc.Tasks, TaskRow{
				Pkg:     d.Pkg,
				PkgOp:   d.PkgOp,
				Task:    d.Task,
				TaskOp:  d.TaskOp,
				Value1:  d.Value1,
				Value2:  d.Value2,
				AbsDiff: d.AbsDiff,
				RelDiff: finite(d.RelDiff),
			})
		}
		doc.Cumulative = &SummaryRow{
			Total1:  r.Summary.Total1,
			Total2:  r.Summary.Total2,
			AbsDiff: r.Summary.AbsDiff,
			RelDiff: finite(r.Summary.RelDiff),
		}
	case KindVersions:
		doc.Versions = newVersionSection(r.Versions)
	}

	return doc
}

func newVersionSection(d *diff.VersionDiff) *VersionSection {
	s := &VersionSection{}
	if d == nil {
		return s
	}
	for _, pkg := range d.New {
		s.New = append(s.New, pkg.NEVR())
	}
	for _, pkg := range d.Dropped {
		s.Dropped = append(s.Dropped, pkg.NEVR())
	}
	s.EpochChanged = versionChanges(d.EpochChanged)
	s.VersionChanged = versionChanges(d.VersionChanged)
	s.RevisionChanged = versionChanges(d.RevisionChanged)
	return s
}

func versionChanges(changes []diff.PackageChange) []VersionChange {
	var out []VersionChange
	for _, c := range changes {
		out = append(out, VersionChange{Name: c.Name, Left: c.Left.NEVR(), Right: c.Right.NEVR()})
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Encode writes r to w in the given format. The text format uses the
// Printer without colors.
func Encode(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatText, "":
		return NewPrinter(w, false).Print(r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(r)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: unknown output format %q", domain.ErrArgument, format)
}
