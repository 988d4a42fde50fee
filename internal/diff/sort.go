package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// SortFields lists the TaskDiff fields usable as sort keys
var SortFields = []string{"pkg", "pkg_op", "task", "task_op", "value1", "value2", "absdiff", "reldiff"}

// DefaultSortBy is the sort order used when none is given
const DefaultSortBy = "absdiff"

// SortKey is one sort criterion
type SortKey struct {
	Field   string
	Reverse bool
}

func (k SortKey) String() string {
	if k.Reverse {
		return "-" + k.Field
	}
	return k.Field
}

// ParseSortKeys parses a comma-separated field list such as "pkg,-absdiff".
// A leading '-' requests descending order.
func ParseSortKeys(fields string) ([]SortKey, error) {
	var keys []SortKey
	for _, field := range strings.Split(fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key := SortKey{Field: field}
		if strings.HasPrefix(field, "-") {
			key = SortKey{Field: field[1:], Reverse: true}
		}
		if !isSortField(key.Field) {
			return nil, fmt.Errorf("%w: invalid sort field %q (must be one of: %s)",
				domain.ErrArgument, field, strings.Join(SortFields, ", "))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func isSortField(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// Sort orders diffs in place. Keys are applied one after another with a
// stable sort, so the last key determines the primary order and earlier
// keys break ties.
func Sort(diffs []TaskDiff, keys []SortKey) {
	for _, key := range keys {
		cmp := comparator(key.Field)
		if key.Reverse {
			sort.SliceStable(diffs, func(i, j int) bool { return cmp(diffs[j], diffs[i]) })
		} else {
			sort.SliceStable(diffs, func(i, j int) bool { return cmp(diffs[i], diffs[j]) })
		}
	}
}

// comparator returns a less function for a field
func comparator(field string) func(a, b TaskDiff) bool {
	switch field {
	case "pkg":
		return func(a, b TaskDiff) bool { return a.Pkg < b.Pkg }
	case "pkg_op":
		return func(a, b TaskDiff) bool { return a.PkgOp < b.PkgOp }
	case "task":
		return func(a, b TaskDiff) bool { return a.Task < b.Task }
	case "task_op":
		return func(a, b TaskDiff) bool { return a.TaskOp < b.TaskOp }
	case "value1":
		return func(a, b TaskDiff) bool { return a.Value1 < b.Value1 }
	case "value2":
		return func(a, b TaskDiff) bool { return a.Value2 < b.Value2 }
	case "absdiff":
		return func(a, b TaskDiff) bool { return a.AbsDiff < b.AbsDiff }
	case "reldiff":
		return func(a, b TaskDiff) bool { return a.RelDiff < b.RelDiff }
	}
	return func(a, b TaskDiff) bool { return false }
}
