package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Printer renders reports as aligned text tables
type Printer struct {
	w      io.Writer
	added  *color.Color
	remove *color.Color
	worse  *color.Color
	better *color.Color
	title  *color.Color
}

// NewPrinter creates a text printer. With colors disabled the output is
// plain text regardless of the terminal.
func NewPrinter(w io.Writer, colors bool) *Printer {
	p := &Printer{
		w:      w,
		added:  color.New(color.FgGreen),
		remove: color.New(color.FgRed),
		worse:  color.New(color.FgHiRed),
		better: color.New(color.FgHiGreen),
		title:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.added, p.remove, p.worse, p.better, p.title} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print renders r according to its kind
func (p *Printer) Print(r *Report) error {
	var buf bytes.Buffer
	switch r.Kind {
	case KindVersions:
		p.writeVersions(&buf, r.Versions)
	case KindTasks:
		p.writeTasks(&buf, r)
	default:
		return fmt.Errorf("%w: unknown report kind %q", domain.ErrArgument, r.Kind)
	}
	_, err := p.w.Write(buf.Bytes())
	return err
}

func (p *Printer) writeTasks(buf *bytes.Buffer, r *Report) {
	unit := r.Metric.Unit()

	if r.MinVal > 0 {
		fmt.Fprintf(buf, "Ignoring tasks less than %s (%s)\n",
			FormatHuman(unit, r.MinVal), FormatRaw(unit, r.MinVal))
	}
	if r.MinAbsDiff > 0 {
		fmt.Fprintf(buf, "Ignoring differences less than %s (%s)\n",
			FormatHuman(unit, r.MinAbsDiff), FormatRaw(unit, r.MinAbsDiff))
	}
	if r.MinVal > 0 || r.MinAbsDiff > 0 {
		buf.WriteString("\n")
	}

	metric := strings.ToUpper(string(r.Metric))
	header := []string{"  ", "PKG", "  ", "TASK", "ABSDIFF", "RELDIFF", metric + "1", metric + "2"}

	rows := make([][]string, 0, len(r.Tasks))
	for _, d := range r.Tasks {
		rows = append(rows, taskRow(unit, d))
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	buf.WriteString(p.formatRow(header, widths, nil))
	for i, row := range rows {
		buf.WriteString(p.formatRow(row, widths, &r.Tasks[i]))
	}

	s := r.Summary
	fmt.Fprintf(buf, "\nCumulative %s:\n", r.Metric)
	fmt.Fprintf(buf, "  %s    %s    %s (%s) -> %s (%s)\n",
		FormatRaw(unit, s.AbsDiff), FormatPercent(s.RelDiff),
		FormatHuman(unit, s.Total1), FormatRaw(unit, s.Total1),
		FormatHuman(unit, s.Total2), FormatRaw(unit, s.Total2))
}

func taskRow(unit domain.Unit, d diff.TaskDiff) []string {
	taskPrefix := " "
	if d.PkgOp == diff.OpNone {
		taskPrefix = d.TaskOp
	}
	return []string{
		d.PkgOp,
		d.Pkg,
		taskPrefix,
		d.Task,
		FormatRaw(unit, d.AbsDiff),
		FormatPercent(d.RelDiff),
		FormatHuman(unit, d.Value1),
		FormatHuman(unit, d.Value2),
	}
}

// formatRow pads the cells to their column widths. Colors are applied after
// padding so escape sequences do not disturb alignment.
func (p *Printer) formatRow(cells []string, widths []int, d *diff.TaskDiff) string {
	padded := []string{
		fmt.Sprintf("%-*s", widths[0], cells[0]),
		fmt.Sprintf("%-*s", widths[1], cells[1]),
		fmt.Sprintf("%-*s", widths[2], cells[2]),
		fmt.Sprintf("%-*s", widths[3], cells[3]),
		fmt.Sprintf("%*s", widths[4], cells[4]),
		fmt.Sprintf("%*s", widths[5], cells[5]),
		fmt.Sprintf("%*s", widths[6], cells[6]),
		fmt.Sprintf("%-*s", widths[7], cells[7]),
	}
	if d != nil {
		padded[0] = p.colorOp(d.PkgOp, padded[0])
		padded[2] = p.colorOp(cells[2], padded[2])
		switch {
		case d.RelDiff > 0:
			padded[5] = p.worse.Sprint(padded[5])
		case d.RelDiff < 0:
			padded[5] = p.better.Sprint(padded[5])
		}
	}
	line := fmt.Sprintf("%s%s  %s%s  %s  %s  %s -> %s",
		padded[0], padded[1], padded[2], padded[3], padded[4], padded[5], padded[6], padded[7])
	return strings.TrimRight(line, " ") + "\n"
}

func (p *Printer) colorOp(op, s string) string {
	switch op {
	case diff.OpAdded:
		return p.added.Sprint(s)
	case diff.OpRemoved:
		return p.remove.Sprint(s)
	}
	return s
}

func (p *Printer) writeVersions(buf *bytes.Buffer, d *diff.VersionDiff) {
	if d == nil || d.Empty() {
		buf.WriteString("No version differences\n")
		return
	}

	maxLen := 0
	for _, pkg := range d.New {
		maxLen = max(maxLen, len(pkg.Name))
	}
	for _, pkg := range d.Dropped {
		maxLen = max(maxLen, len(pkg.Name))
	}
	for _, changes := range [][]diff.PackageChange{d.RevisionChanged, d.VersionChanged, d.EpochChanged} {
		for _, c := range changes {
			maxLen = max(maxLen, len(c.Name))
		}
	}

	if len(d.New) > 0 {
		p.writeTitle(buf, "NEW RECIPES")
		for _, pkg := range d.New {
			fmt.Fprintf(buf, "  %-*s (%s)\n", maxLen, pkg.Name, pkg.NEVR())
		}
	}
	if len(d.Dropped) > 0 {
		p.writeTitle(buf, "DROPPED RECIPES")
		for _, pkg := range d.Dropped {
			fmt.Fprintf(buf, "  %-*s (%s)\n", maxLen, pkg.Name, pkg.NEVR())
		}
	}

	p.writeChanges(buf, "REVISION CHANGED", d.RevisionChanged, maxLen, func(s *domain.PackageStats) string { return s.Revision })
	p.writeChanges(buf, "VERSION CHANGED", d.VersionChanged, maxLen, func(s *domain.PackageStats) string { return s.Version })
	p.writeChanges(buf, "EPOCH CHANGED", d.EpochChanged, maxLen, func(s *domain.PackageStats) string { return s.Epoch })
}

func (p *Printer) writeChanges(buf *bytes.Buffer, title string, changes []diff.PackageChange, maxLen int, field func(*domain.PackageStats) string) {
	if len(changes) == 0 {
		return
	}
	p.writeTitle(buf, title)
	for _, c := range changes {
		fmt.Fprintf(buf, "  %-*s %-20s    (%s -> %s)\n", maxLen, c.Name,
			field(c.Left)+" -> "+field(c.Right), c.Left.NEVR(), c.Right.NEVR())
	}
}

func (p *Printer) writeTitle(buf *bytes.Buffer, title string) {
	if buf.Len() > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString(p.title.Sprint(title) + "\n")
	buf.WriteString(strings.Repeat("-", len(title)) + "\n")
}
