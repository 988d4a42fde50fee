package buildstats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// jsonPackage is one element of the top-level JSON array
type jsonPackage struct {
	Name     string                     `json:"name"`
	Epoch    looseString                `json:"epoch"`
	Version  looseString                `json:"version"`
	Revision looseString                `json:"revision"`
	Tasks    map[string]json.RawMessage `json:"tasks"`
}

// looseString accepts null, strings and numbers
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(n.String())
	return nil
}

// ReadJSONFile reads a JSON-encoded buildstats file
func ReadJSONFile(path string) (domain.BuildStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buildstats file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read buildstats file: %w", err)
	}

	bs, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bs, nil
}

// ParseJSON parses the JSON encoding of a buildstats collection:
//
//	[{"name": "zlib", "epoch": null, "version": "1.2.11", "revision": "r0",
//	  "tasks": {"do_compile": {"start_time": ..., "elapsed_time": ..., ...}}}]
//
// A task value may be a single record object or a list of records (one per
// averaged run). Missing record fields default to zero.
func ParseJSON(data []byte) (domain.BuildStats, error) {
	// Remove BOM (Byte Order Mark) if present
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var packages []jsonPackage
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("%w: invalid buildstats JSON: %v", domain.ErrFormat, err)
	}

	bs := make(domain.BuildStats, len(packages))
	for i, p := range packages {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: package #%d has no name", domain.ErrParse, i)
		}
		if _, exists := bs[p.Name]; exists {
			return nil, fmt.Errorf("%w: cannot handle multiple versions of the same package (%s)", domain.ErrMerge, p.Name)
		}

		pkg := domain.NewPackageStats(p.Name, string(p.Epoch), string(p.Version), string(p.Revision))
		for taskName, raw := range p.Tasks {
			runs, err := parseJSONTask(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrParse, p.Name, taskName, err)
			}
			pkg.Tasks[taskName] = runs
		}
		bs[p.Name] = pkg
	}

	return bs, nil
}

func parseJSONTask(raw json.RawMessage) (domain.TaskRuns, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("empty task record list")
		}
		runs := make(domain.TaskRuns, 0, len(records))
		for i, record := range records {
			task, err := parseJSONRecord(record)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			runs = append(runs, task)
		}
		return runs, nil
	}

	task, err := parseJSONRecord(raw)
	if err != nil {
		return nil, err
	}
	return domain.TaskRuns{task}, nil
}

// parseJSONRecord decodes one task record; null would decode to an all-zero
// run and is refused
func parseJSONRecord(raw json.RawMessage) (domain.TaskStats, error) {
	var task domain.TaskStats
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return task, fmt.Errorf("missing task record")
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		return task, err
	}
	return task, nil
}

// WriteJSON encodes a collection in the format accepted by ParseJSON.
// Packages are written in name order, every task as a list of records.
func WriteJSON(w io.Writer, bs domain.BuildStats) error {
	packages := make([]*domain.PackageStats, 0, len(bs))
	for _, name := range bs.PackageNames() {
		packages = append(packages, bs[name])
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(packages); err != nil {
		return fmt.Errorf("failed to encode buildstats: %w", err)
	}
	return nil
}

// WriteJSONFile writes a collection to path
func WriteJSONFile(path string, bs domain.BuildStats) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteJSON(file, bs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
