package diff

import (
	"math"
	"testing"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build creates a collection where every task's walltime is the given value
func build(tasks map[string]map[string]float64) domain.BuildStats {
	bs := make(domain.BuildStats)
	for pkgName, pkgTasks := range tasks {
		pkg := domain.NewPackageStats(pkgName, "", "1.0", "r0")
		for task, wall := range pkgTasks {
			pkg.Tasks[task] = domain.TaskRuns{{ElapsedTime: wall}}
		}
		bs[pkgName] = pkg
	}
	return bs
}

func find(t *testing.T, diffs []TaskDiff, pkg, task string) TaskDiff {
	t.Helper()
	for _, d := range diffs {
		if d.Pkg == pkg && d.Task == task {
			return d
		}
	}
	t.Fatalf("no diff for %s:%s in %+v", pkg, task, diffs)
	return TaskDiff{}
}

func TestTasks_Values(t *testing.T) {
	left := build(map[string]map[string]float64{
		"foo": {"do_compile": 100, "do_install": 0, "do_old": 4},
		"old": {"do_compile": 7},
	})
	right := build(map[string]map[string]float64{
		"foo": {"do_compile": 90, "do_install": 5, "do_new": 3},
		"new": {"do_compile": 8},
	})

	diffs := Tasks(left, right, TaskOptions{Metric: domain.MetricWallTime})

	compile := find(t, diffs, "foo", "do_compile")
	assert.Equal(t, -10.0, compile.AbsDiff)
	assert.Equal(t, -10.0, compile.RelDiff)
	assert.Equal(t, OpNone, compile.PkgOp)
	assert.Equal(t, OpNone, compile.TaskOp)

	install := find(t, diffs, "foo", "do_install")
	assert.Equal(t, 5.0, install.AbsDiff)
	assert.True(t, math.IsInf(install.RelDiff, 1))

	added := find(t, diffs, "foo", "do_new")
	assert.Equal(t, OpAdded, added.TaskOp)
	assert.Equal(t, 0.0, added.Value1)
	assert.Equal(t, 3.0, added.Value2)

	removed := find(t, diffs, "foo", "do_old")
	assert.Equal(t, OpRemoved, removed.TaskOp)
	assert.Equal(t, 0.0, removed.Value2)
	assert.Equal(t, -100.0, removed.RelDiff)

	newPkg := find(t, diffs, "new", "do_compile")
	assert.Equal(t, OpAdded, newPkg.PkgOp)
	assert.Equal(t, OpAdded, newPkg.TaskOp)
	assert.Equal(t, 0.0, newPkg.Value1)

	oldPkg := find(t, diffs, "old", "do_compile")
	assert.Equal(t, OpRemoved, oldPkg.PkgOp)

	require.Len(t, diffs, 6)
	assert.Equal(t, "foo", diffs[0].Pkg, "unsorted output is ordered by package")
}

func TestTasks_Filters(t *testing.T) {
	left := build(map[string]map[string]float64{
		"foo": {"small": 300, "steady": 1000, "moving": 1000},
	})
	right := build(map[string]map[string]float64{
		"foo": {"small": 400, "steady": 1005, "moving": 1200},
	})

	diffs := Tasks(left, right, TaskOptions{Metric: domain.MetricWallTime, MinVal: 500})
	assert.Len(t, diffs, 2, "task with max value 400 must be dropped by min_val=500")

	diffs = Tasks(left, right, TaskOptions{Metric: domain.MetricWallTime, MinAbsDiff: 10})
	assert.Len(t, diffs, 2, "task with absdiff 5 must be dropped by min_absdiff=10")
	for _, d := range diffs {
		assert.NotEqual(t, "steady", d.Task)
	}

	diffs = Tasks(left, right, TaskOptions{Metric: domain.MetricWallTime, MinVal: 500, MinAbsDiff: 10})
	require.Len(t, diffs, 1)
	assert.Equal(t, "moving", diffs[0].Task)
}

func TestTasks_AveragesRuns(t *testing.T) {
	left := build(map[string]map[string]float64{"foo": {"do_compile": 0}})
	left["foo"].Tasks["do_compile"] = domain.TaskRuns{{ElapsedTime: 10}, {ElapsedTime: 20}}
	right := build(map[string]map[string]float64{"foo": {"do_compile": 30}})

	diffs := Tasks(left, right, TaskOptions{Metric: domain.MetricWallTime})
	require.Len(t, diffs, 1)
	assert.Equal(t, 15.0, diffs[0].Value1)
	assert.Equal(t, 100.0, diffs[0].RelDiff)
}

func TestTasks_OnlyTasks(t *testing.T) {
	left := build(map[string]map[string]float64{
		"foo": {"do_compile": 1, "do_install": 1},
		"bar": {"do_install": 1},
	})
	right := build(map[string]map[string]float64{
		"foo": {"do_compile": 2, "do_install": 2},
		"bar": {"do_install": 2},
	})

	opts := TaskOptions{Metric: domain.MetricWallTime, OnlyTasks: []string{"do_compile"}}
	diffs := Tasks(left, right, opts)
	require.Len(t, diffs, 1)
	assert.Equal(t, "foo", diffs[0].Pkg)

	summary := Cumulative(left, right, opts)
	assert.Equal(t, 1.0, summary.Total1)
	assert.Equal(t, 2.0, summary.Total2)
}

func TestCumulative_IgnoresFilters(t *testing.T) {
	left := build(map[string]map[string]float64{"foo": {"a": 1, "b": 100}})
	right := build(map[string]map[string]float64{"foo": {"a": 2, "b": 150}, "bar": {"c": 10}})

	opts := TaskOptions{Metric: domain.MetricWallTime, MinVal: 50}
	summary := Cumulative(left, right, opts)

	assert.Equal(t, 101.0, summary.Total1)
	assert.Equal(t, 162.0, summary.Total2)
	assert.Equal(t, 61.0, summary.AbsDiff)
	assert.InDelta(t, 60.396, summary.RelDiff, 0.001)
}

func TestCumulative_ZeroLeftTotal(t *testing.T) {
	summary := Cumulative(domain.BuildStats{}, build(map[string]map[string]float64{"foo": {"a": 1}}),
		TaskOptions{Metric: domain.MetricWallTime})
	assert.True(t, math.IsInf(summary.RelDiff, 1))
}
