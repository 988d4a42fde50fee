package diff

import "github.com/SteelMorgan/buildstats-diff/internal/domain"

// PackageChange pairs the left and right bundle of a package present in both builds
type PackageChange struct {
	Name  string
	Left  *domain.PackageStats
	Right *domain.PackageStats
}

// VersionDiff partitions packages of two builds by how their identity changed.
// A common package lands in exactly one of the changed buckets or in
// Unchanged; epoch takes precedence over version, version over revision.
// All slices are sorted by package name.
type VersionDiff struct {
	New             []*domain.PackageStats
	Dropped         []*domain.PackageStats
	EpochChanged    []PackageChange
	VersionChanged  []PackageChange
	RevisionChanged []PackageChange
	Unchanged       []PackageChange
}

// Versions computes package version differences between bs1 (left) and bs2 (right)
func Versions(bs1, bs2 domain.BuildStats) *VersionDiff {
	d := &VersionDiff{}

	for _, name := range unionNames(bs1, bs2) {
		left, inLeft := bs1[name]
		right, inRight := bs2[name]

		switch {
		case !inLeft:
			d.New = append(d.New, right)
		case !inRight:
			d.Dropped = append(d.Dropped, left)
		default:
			change := PackageChange{Name: name, Left: left, Right: right}
			switch {
			case left.Epoch != right.Epoch:
				d.EpochChanged = append(d.EpochChanged, change)
			case left.Version != right.Version:
				d.VersionChanged = append(d.VersionChanged, change)
			case left.Revision != right.Revision:
				d.RevisionChanged = append(d.RevisionChanged, change)
			default:
				d.Unchanged = append(d.Unchanged, change)
			}
		}
	}

	return d
}

// Empty reports whether both builds have the same packages at the same versions
func (d *VersionDiff) Empty() bool {
	return len(d.New) == 0 && len(d.Dropped) == 0 &&
		len(d.EpochChanged) == 0 && len(d.VersionChanged) == 0 && len(d.RevisionChanged) == 0
}
