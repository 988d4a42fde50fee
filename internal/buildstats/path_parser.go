package buildstats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Package directory name without the revision: <name>-[<epoch>_]<version>.
// The first pattern requires the version to start with a digit, the second
// accepts anything after the last dash (non-numeric version schemes).
var (
	nevNumericRegex  = regexp.MustCompile(`^(\S+)-(?:([0-9]{1,5})_)?([0-9]\S*)$`)
	nevFallbackRegex = regexp.MustCompile(`^(\S+)-(?:([0-9]{1,5})_)?([^-]+)$`)
)

// SplitNEVR splits a package directory name into name, epoch, version and revision
//
// Examples:
//   - "zlib-1.2.11-r0"              → zlib, "", 1.2.11, r0
//   - "gcc-cross-x86_64-9.2-r0"     → gcc-cross-x86_64, "", 9.2, r0
//   - "shadow-2_4.8.1-r0"           → shadow, 2, 4.8.1, r0
//   - "linux-yocto-git-r0"          → linux-yocto, "", git, r0
func SplitNEVR(nevr string) (name, epoch, version, revision string, err error) {
	idx := strings.LastIndex(nevr, "-")
	if idx == -1 {
		return "", "", "", "", fmt.Errorf("%w: no revision separator in package directory name %q", domain.ErrParse, nevr)
	}
	nev, revision := nevr[:idx], nevr[idx+1:]

	match := nevNumericRegex.FindStringSubmatch(nev)
	if match == nil {
		match = nevFallbackRegex.FindStringSubmatch(nev)
	}
	if match == nil {
		return "", "", "", "", fmt.Errorf("%w: unable to split name and version from %q", domain.ErrParse, nevr)
	}

	return match[1], match[2], match[3], revision, nil
}
