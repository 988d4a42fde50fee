package domain

import "time"

// ReadMetrics describes how a buildstats source was read
type ReadMetrics struct {
	SourcePath     string
	SourceKind     string // "json", "directory" or "multi"
	Runs           int    // Number of builds averaged into the collection
	FilesRead      uint32
	PackagesParsed uint32
	TasksParsed    uint64 // Task records, counting every run
	CacheHit       bool
	StartTime      time.Time
	EndTime        time.Time
}

// ParsingTimeMs returns the wall time spent reading the source
func (m *ReadMetrics) ParsingTimeMs() uint64 {
	if m.EndTime.Before(m.StartTime) {
		return 0
	}
	return uint64(m.EndTime.Sub(m.StartTime).Milliseconds())
}
