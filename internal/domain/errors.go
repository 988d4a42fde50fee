package domain

import "errors"

// Error kinds returned by the buildstats reader, aggregator and diff engine.
// Callers match them with errors.Is; the wrapped message carries the details.
var (
	// ErrPath is returned when an input path does not exist
	ErrPath = errors.New("path error")

	// ErrFormat is returned when a source is not a recognized buildstats encoding
	ErrFormat = errors.New("format error")

	// ErrParse is returned for malformed task files or missing required fields
	ErrParse = errors.New("parse error")

	// ErrMerge is returned when collections cannot be combined
	ErrMerge = errors.New("merge error")

	// ErrArgument is returned for invalid options (unknown sort field, metric, ...)
	ErrArgument = errors.New("argument error")
)
