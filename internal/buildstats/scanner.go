package buildstats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// MarkerFile is present in the root of every buildstats directory
const MarkerFile = "build_stats"

// SourceKind identifies the encoding of a buildstats source
type SourceKind int

const (
	// SourceJSONFile is a single JSON file holding a package array
	SourceJSONFile SourceKind = iota
	// SourceTextDirectory is a buildstats directory with one text file per task
	SourceTextDirectory
	// SourceMulti is a directory holding several independent sources
	SourceMulti
)

func (k SourceKind) String() string {
	switch k {
	case SourceJSONFile:
		return "json"
	case SourceTextDirectory:
		return "directory"
	case SourceMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// Source is a buildstats location with its kind resolved
type Source struct {
	Path    string
	Kind    SourceKind
	Members []Source // Set for SourceMulti only, in name order
}

// ResolveSource determines how path has to be read:
//   - a regular file is JSON
//   - a directory containing the build_stats marker is a text directory
//   - any other directory is a set of sources, each entry being a JSON file
//     or a buildstats directory
func ResolveSource(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no such file or directory: %s", domain.ErrPath, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPath, err)
	}

	if info.Mode().IsRegular() {
		return &Source{Path: path, Kind: SourceJSONFile}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is neither a file nor a directory", domain.ErrFormat, path)
	}
	if IsBuildstatsDir(path) {
		return &Source{Path: path, Kind: SourceTextDirectory}, nil
	}

	members, err := scanSources(path)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no buildstats found under %s", domain.ErrFormat, path)
	}
	return &Source{Path: path, Kind: SourceMulti, Members: members}, nil
}

// IsBuildstatsDir reports whether dir contains the buildstats marker file
func IsBuildstatsDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, MarkerFile))
	return err == nil && info.Mode().IsRegular()
}

// scanSources lists the entries of a directory of builds.
// Hidden entries are skipped. A subdirectory without the marker file is
// itself a directory of builds and is rejected by the reader.
func scanSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPath, err)
		}
		switch {
		case info.Mode().IsRegular():
			sources = append(sources, Source{Path: path, Kind: SourceJSONFile})
		case info.IsDir() && IsBuildstatsDir(path):
			sources = append(sources, Source{Path: path, Kind: SourceTextDirectory})
		case info.IsDir():
			sources = append(sources, Source{Path: path, Kind: SourceMulti})
		}
	}
	return sources, nil
}
