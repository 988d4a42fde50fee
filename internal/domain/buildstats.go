package domain

import "sort"

// TaskRuns holds the records of one task, one entry per averaged build run
type TaskRuns []TaskStats

// Mean returns the arithmetic mean of the metric over all runs.
// An empty slice yields 0.
func (r TaskRuns) Mean(m Metric) float64 {
	if len(r) == 0 {
		return 0
	}
	var total float64
	for _, t := range r {
		total += m.Value(t)
	}
	return total / float64(len(r))
}

// PackageStats holds the identity of a package (recipe) and its task statistics
type PackageStats struct {
	Name     string              `json:"name" yaml:"name"`
	Epoch    string              `json:"epoch" yaml:"epoch"`
	Version  string              `json:"version" yaml:"version"`
	Revision string              `json:"revision" yaml:"revision"`
	Tasks    map[string]TaskRuns `json:"tasks" yaml:"tasks"`
}

// NewPackageStats creates an empty package bundle
func NewPackageStats(name, epoch, version, revision string) *PackageStats {
	return &PackageStats{
		Name:     name,
		Epoch:    epoch,
		Version:  version,
		Revision: revision,
		Tasks:    make(map[string]TaskRuns),
	}
}

// NEVR returns the name-[epoch_]version-revision string of the package
func (p *PackageStats) NEVR() string {
	nevr := p.Name + "-"
	if p.Epoch != "" {
		nevr += p.Epoch + "_"
	}
	return nevr + p.Version + "-" + p.Revision
}

// TaskNames returns task names in sorted order
func (p *PackageStats) TaskNames() []string {
	names := make([]string, 0, len(p.Tasks))
	for name := range p.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildStats is the complete set of package statistics of one build
// (possibly averaged over several runs), keyed by package name
type BuildStats map[string]*PackageStats

// PackageNames returns package names in sorted order
func (bs BuildStats) PackageNames() []string {
	names := make([]string, 0, len(bs))
	for name := range bs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
