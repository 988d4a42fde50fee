package diff

import (
	"math"
	"sort"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Markers used in PkgOp and TaskOp
const (
	OpAdded   = "+"
	OpRemoved = "-"
	OpNone    = " "
)

// TaskDiff is the difference of one metric of one package task
type TaskDiff struct {
	Pkg     string
	PkgOp   string
	Task    string
	TaskOp  string
	Value1  float64
	Value2  float64
	AbsDiff float64
	RelDiff float64 // Percent; +Inf when Value1 is zero
}

// TaskOptions selects and filters the compared values
type TaskOptions struct {
	Metric domain.Metric

	// MinVal drops tasks whose larger value is below it
	MinVal float64

	// MinAbsDiff drops tasks whose absolute change is below it
	MinAbsDiff float64

	// OnlyTasks restricts the comparison to the named tasks when not empty
	OnlyTasks []string
}

func (o TaskOptions) selects(task string) bool {
	if len(o.OnlyTasks) == 0 {
		return true
	}
	for _, name := range o.OnlyTasks {
		if name == task {
			return true
		}
	}
	return false
}

// RelDiff returns 100*(v2-v1)/v1, or +Inf when v1 is zero
func RelDiff(v1, v2 float64) float64 {
	if v1 == 0 {
		return math.Inf(1)
	}
	return 100.0 * (v2 - v1) / v1
}

// Tasks computes per-task differences of opts.Metric between bs1 (left)
// and bs2 (right). The value of a task is the mean over its runs, 0 when the
// task is absent on one side. The result is ordered by package and task name.
func Tasks(bs1, bs2 domain.BuildStats, opts TaskOptions) []TaskDiff {
	var diffs []TaskDiff

	for _, pkg := range unionNames(bs1, bs2) {
		tasks1 := selectedTasks(bs1[pkg], opts)
		tasks2 := selectedTasks(bs2[pkg], opts)

		pkgOp := OpNone
		if len(tasks1) == 0 {
			pkgOp = OpAdded
		} else if len(tasks2) == 0 {
			pkgOp = OpRemoved
		}

		for _, task := range unionKeys(tasks1, tasks2) {
			taskOp := OpNone
			var val1, val2 float64
			if runs, ok := tasks1[task]; ok {
				val1 = runs.Mean(opts.Metric)
			} else {
				taskOp = OpAdded
			}
			if runs, ok := tasks2[task]; ok {
				val2 = runs.Mean(opts.Metric)
			} else {
				taskOp = OpRemoved
			}

			absDiff := val2 - val1
			if opts.MinVal > 0 && math.Max(val1, val2) < opts.MinVal {
				continue
			}
			if opts.MinAbsDiff > 0 && math.Abs(absDiff) < opts.MinAbsDiff {
				continue
			}

			diffs = append(diffs, TaskDiff{
				Pkg:     pkg,
				PkgOp:   pkgOp,
				Task:    task,
				TaskOp:  taskOp,
				Value1:  val1,
				Value2:  val2,
				AbsDiff: absDiff,
				RelDiff: RelDiff(val1, val2),
			})
		}
	}

	return diffs
}

// Summary holds cumulative metric totals of two builds
type Summary struct {
	Metric  domain.Metric
	Total1  float64
	Total2  float64
	AbsDiff float64
	RelDiff float64
}

// Cumulative sums the metric (mean per task) over every selected task of
// each build, regardless of the MinVal/MinAbsDiff filters
func Cumulative(bs1, bs2 domain.BuildStats, opts TaskOptions) Summary {
	total1 := total(bs1, opts)
	total2 := total(bs2, opts)
	return Summary{
		Metric:  opts.Metric,
		Total1:  total1,
		Total2:  total2,
		AbsDiff: total2 - total1,
		RelDiff: RelDiff(total1, total2),
	}
}

func total(bs domain.BuildStats, opts TaskOptions) float64 {
	var sum float64
	for _, pkg := range bs {
		for name, runs := range pkg.Tasks {
			if opts.selects(name) {
				sum += runs.Mean(opts.Metric)
			}
		}
	}
	return sum
}

func selectedTasks(pkg *domain.PackageStats, opts TaskOptions) map[string]domain.TaskRuns {
	if pkg == nil {
		return nil
	}
	if len(opts.OnlyTasks) == 0 {
		return pkg.Tasks
	}
	tasks := make(map[string]domain.TaskRuns)
	for name, runs := range pkg.Tasks {
		if opts.selects(name) {
			tasks[name] = runs
		}
	}
	return tasks
}

func unionNames(bs1, bs2 domain.BuildStats) []string {
	seen := make(map[string]struct{}, len(bs1)+len(bs2))
	for name := range bs1 {
		seen[name] = struct{}{}
	}
	for name := range bs2 {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

func unionKeys(a, b map[string]domain.TaskRuns) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
	}
	for name := range b {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
