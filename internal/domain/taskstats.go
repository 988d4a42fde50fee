package domain

import "fmt"

// IOStat holds /proc/<pid>/io counters recorded for a task
type IOStat struct {
	RChar               int64 `json:"rchar" yaml:"rchar"`
	WChar               int64 `json:"wchar" yaml:"wchar"`
	SyscR               int64 `json:"syscr" yaml:"syscr"`
	SyscW               int64 `json:"syscw" yaml:"syscw"`
	ReadBytes           int64 `json:"read_bytes" yaml:"read_bytes"`
	WriteBytes          int64 `json:"write_bytes" yaml:"write_bytes"`
	CancelledWriteBytes int64 `json:"cancelled_write_bytes" yaml:"cancelled_write_bytes"`
}

// Set assigns a counter by its buildstats name.
// Unknown names are ignored and reported as false.
func (s *IOStat) Set(name string, value int64) bool {
	switch name {
	case "rchar":
		s.RChar = value
	case "wchar":
		s.WChar = value
	case "syscr":
		s.SyscR = value
	case "syscw":
		s.SyscW = value
	case "read_bytes":
		s.ReadBytes = value
	case "write_bytes":
		s.WriteBytes = value
	case "cancelled_write_bytes":
		s.CancelledWriteBytes = value
	default:
		return false
	}
	return true
}

// Rusage holds getrusage(2) counters of a task or of its children
type Rusage struct {
	Utime   float64 `json:"ru_utime" yaml:"ru_utime"` // seconds
	Stime   float64 `json:"ru_stime" yaml:"ru_stime"` // seconds
	Maxrss  int64   `json:"ru_maxrss" yaml:"ru_maxrss"`
	Minflt  int64   `json:"ru_minflt" yaml:"ru_minflt"`
	Majflt  int64   `json:"ru_majflt" yaml:"ru_majflt"`
	Inblock int64   `json:"ru_inblock" yaml:"ru_inblock"`
	Oublock int64   `json:"ru_oublock" yaml:"ru_oublock"`
	Nvcsw   int64   `json:"ru_nvcsw" yaml:"ru_nvcsw"`
	Nivcsw  int64   `json:"ru_nivcsw" yaml:"ru_nivcsw"`
}

// IsTimeCounter reports whether the named rusage counter holds seconds
// (float) rather than a count (integer)
func IsTimeCounter(name string) bool {
	return name == "ru_utime" || name == "ru_stime"
}

// SetTime assigns a time counter (ru_utime / ru_stime)
func (r *Rusage) SetTime(name string, value float64) bool {
	switch name {
	case "ru_utime":
		r.Utime = value
	case "ru_stime":
		r.Stime = value
	default:
		return false
	}
	return true
}

// SetCount assigns an integer counter. Unknown names are ignored.
func (r *Rusage) SetCount(name string, value int64) bool {
	switch name {
	case "ru_maxrss":
		r.Maxrss = value
	case "ru_minflt":
		r.Minflt = value
	case "ru_majflt":
		r.Majflt = value
	case "ru_inblock":
		r.Inblock = value
	case "ru_oublock":
		r.Oublock = value
	case "ru_nvcsw":
		r.Nvcsw = value
	case "ru_nivcsw":
		r.Nivcsw = value
	default:
		return false
	}
	return true
}

// TaskStats represents measurements of one executed build task
type TaskStats struct {
	StartTime   float64 `json:"start_time" yaml:"start_time"`
	ElapsedTime float64 `json:"elapsed_time" yaml:"elapsed_time"`
	Status      string  `json:"status" yaml:"status"`
	IOStat      IOStat  `json:"iostat" yaml:"iostat"`
	Rusage      Rusage  `json:"rusage" yaml:"rusage"`
	ChildRusage Rusage  `json:"child_rusage" yaml:"child_rusage"`
}

// CPUTime is the user+system time of the task and its children
func (t TaskStats) CPUTime() float64 {
	return t.Rusage.Utime + t.Rusage.Stime + t.ChildRusage.Utime + t.ChildRusage.Stime
}

// WallTime is the elapsed time of the task
func (t TaskStats) WallTime() float64 {
	return t.ElapsedTime
}

func (t TaskStats) ReadBytes() float64 {
	return float64(t.IOStat.ReadBytes)
}

func (t TaskStats) WriteBytes() float64 {
	return float64(t.IOStat.WriteBytes)
}

// ReadOps is the number of block layer read operations (own + children)
func (t TaskStats) ReadOps() float64 {
	return float64(t.Rusage.Inblock + t.ChildRusage.Inblock)
}

// WriteOps is the number of block layer write operations (own + children)
func (t TaskStats) WriteOps() float64 {
	return float64(t.Rusage.Oublock + t.ChildRusage.Oublock)
}

// Metric names a comparable task statistic
type Metric string

const (
	MetricCPUTime    Metric = "cputime"
	MetricWallTime   Metric = "walltime"
	MetricReadBytes  Metric = "read_bytes"
	MetricWriteBytes Metric = "write_bytes"
	MetricReadOps    Metric = "read_ops"
	MetricWriteOps   Metric = "write_ops"
)

// Metrics lists all supported metrics in display order
var Metrics = []Metric{
	MetricCPUTime,
	MetricWallTime,
	MetricReadBytes,
	MetricWriteBytes,
	MetricReadOps,
	MetricWriteOps,
}

// ParseMetric validates a metric name
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown diff attribute %q (must be one of %v)", ErrArgument, name, Metrics)
}

// Unit is the measurement unit of a metric
type Unit int

const (
	UnitSeconds Unit = iota
	UnitBytes
	UnitOps
)

// Unit returns the unit the metric is measured in
func (m Metric) Unit() Unit {
	switch m {
	case MetricReadBytes, MetricWriteBytes:
		return UnitBytes
	case MetricReadOps, MetricWriteOps:
		return UnitOps
	default:
		return UnitSeconds
	}
}

// Value extracts the metric from a single task record
func (m Metric) Value(t TaskStats) float64 {
	switch m {
	case MetricCPUTime:
		return t.CPUTime()
	case MetricWallTime:
		return t.WallTime()
	case MetricReadBytes:
		return t.ReadBytes()
	case MetricWriteBytes:
		return t.WriteBytes()
	case MetricReadOps:
		return t.ReadOps()
	case MetricWriteOps:
		return t.WriteOps()
	}
	return 0
}
