package buildstats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Aggregate merges src into dst by appending src's task records to the
// matching task of dst. Both collections must describe the same build:
// same packages, same package versions and same task names. Nothing is
// modified when validation fails.
func Aggregate(dst, src domain.BuildStats) error {
	if diff := symmetricDiff(dst.PackageNames(), src.PackageNames()); len(diff) > 0 {
		return fmt.Errorf("%w: refusing to aggregate buildstats, set of packages differs: %s",
			domain.ErrMerge, strings.Join(diff, ", "))
	}

	for name, pkg := range src {
		own := dst[name]
		if own.NEVR() != pkg.NEVR() {
			return fmt.Errorf("%w: refusing to aggregate buildstats, package version differs: %s vs. %s",
				domain.ErrMerge, own.NEVR(), pkg.NEVR())
		}
		if diff := symmetricDiff(own.TaskNames(), pkg.TaskNames()); len(diff) > 0 {
			return fmt.Errorf("%w: refusing to aggregate buildstats, set of tasks in %s differs: %s",
				domain.ErrMerge, name, strings.Join(diff, ", "))
		}
	}

	for name, pkg := range src {
		own := dst[name]
		for taskName, runs := range pkg.Tasks {
			own.Tasks[taskName] = append(own.Tasks[taskName], runs...)
		}
	}
	return nil
}

// symmetricDiff returns the sorted names present in exactly one of a and b
func symmetricDiff(a, b []string) []string {
	seen := make(map[string]int, len(a)+len(b))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}

	var diff []string
	for s, n := range seen {
		if n != 0 {
			diff = append(diff, s)
		}
	}
	sort.Strings(diff)
	return diff
}
