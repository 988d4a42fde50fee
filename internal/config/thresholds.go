package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Threshold holds the filter limits of one metric
type Threshold struct {
	MinVal     float64 `yaml:"min_val"`
	MinAbsDiff float64 `yaml:"min_absdiff"`
}

// Thresholds maps metrics to their filter limits
type Thresholds map[domain.Metric]Threshold

// DefaultThresholds returns the built-in filter limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.MetricCPUTime:    {MinVal: 3.0, MinAbsDiff: 1.0},
		domain.MetricWallTime:   {MinVal: 5, MinAbsDiff: 2},
		domain.MetricReadBytes:  {MinVal: 512 * 1024, MinAbsDiff: 128 * 1024},
		domain.MetricWriteBytes: {MinVal: 512 * 1024, MinAbsDiff: 128 * 1024},
		domain.MetricReadOps:    {MinVal: 500, MinAbsDiff: 50},
		domain.MetricWriteOps:   {MinVal: 500, MinAbsDiff: 50},
	}
}

// thresholdsFile is the YAML layout:
//
//	metrics:
//	  walltime:
//	    min_val: 10
type thresholdsFile struct {
	Metrics map[string]*partialThreshold `yaml:"metrics"`
}

type partialThreshold struct {
	MinVal     *float64 `yaml:"min_val"`
	MinAbsDiff *float64 `yaml:"min_absdiff"`
}

// LoadThresholds loads a thresholds profile on top of the defaults.
// An empty path returns the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds: %w", err)
	}

	var file thresholdsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds: %w", err)
	}

	for name, override := range file.Metrics {
		metric, err := domain.ParseMetric(name)
		if err != nil {
			return nil, fmt.Errorf("thresholds %s: %w", path, err)
		}
		if override == nil {
			continue
		}
		t := th[metric]
		if override.MinVal != nil {
			if *override.MinVal < 0 {
				return nil, fmt.Errorf("%w: thresholds %s: %s.min_val must not be negative", domain.ErrArgument, path, name)
			}
			t.MinVal = *override.MinVal
		}
		if override.MinAbsDiff != nil {
			if *override.MinAbsDiff < 0 {
				return nil, fmt.Errorf("%w: thresholds %s: %s.min_absdiff must not be negative", domain.ErrArgument, path, name)
			}
			t.MinAbsDiff = *override.MinAbsDiff
		}
		th[metric] = t
	}

	return th, nil
}

// For returns the limits of a metric, zero when unknown
func (t Thresholds) For(m domain.Metric) Threshold {
	return t[m]
}
