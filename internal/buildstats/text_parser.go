package buildstats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// ParseTaskFile reads one text-format task file
func ParseTaskFile(path string) (*domain.TaskStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task file: %w", err)
	}
	defer file.Close()

	task, err := ParseTaskText(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return task, nil
}

// ParseTaskText parses the text encoding of a task record.
//
// Each line has the form "Key: Value". Recognized keys:
//
//	Started, Ended        float seconds, elapsed_time = Ended - Started
//	Status                free-form string
//	IO <counter>          integer
//	... rusage <counter>  "rusage" as the first token is the task itself,
//	                      anything else ("Child rusage", "crusage") its children
//
// Unrecognized keys are ignored, blank lines are skipped.
func ParseTaskText(r io.Reader) (*domain.TaskStats, error) {
	task := &domain.TaskStats{}

	var started, ended *float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing ':' separator: %q", domain.ErrParse, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "Started":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid start time: %v", domain.ErrParse, lineNo, err)
			}
			started = &v
		case key == "Ended":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid end time: %v", domain.ErrParse, lineNo, err)
			}
			ended = &v
		case key == "Status":
			task.Status = value
		case strings.HasPrefix(key, "IO "):
			if err := setIOCounter(task, key, value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", domain.ErrParse, lineNo, err)
			}
		case strings.Contains(key, "rusage"):
			if err := setRusageCounter(task, key, value); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", domain.ErrParse, lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", domain.ErrParse, lineNo+1, err)
	}

	if started == nil {
		return nil, fmt.Errorf("%w: missing start time (Started)", domain.ErrParse)
	}
	if ended == nil {
		return nil, fmt.Errorf("%w: missing end time (Ended), task unfinished or killed", domain.ErrParse)
	}
	if *ended < *started {
		return nil, fmt.Errorf("%w: end time %v precedes start time %v", domain.ErrParse, *ended, *started)
	}

	task.StartTime = *started
	task.ElapsedTime = *ended - *started
	return task, nil
}

// setIOCounter handles "IO <name>: <int>" lines
func setIOCounter(task *domain.TaskStats, key, value string) error {
	fields := strings.Fields(key)
	if len(fields) < 2 {
		return fmt.Errorf("invalid IO key %q", key)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %v", key, err)
	}
	task.IOStat.Set(fields[1], v)
	return nil
}

// setRusageCounter handles "rusage ru_xxx: N" and "Child rusage ru_xxx: N" lines
func setRusageCounter(task *domain.TaskStats, key, value string) error {
	fields := strings.Fields(key)
	counter := fields[len(fields)-1]

	target := &task.ChildRusage
	if fields[0] == "rusage" {
		target = &task.Rusage
	}

	if domain.IsTimeCounter(counter) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %v", key, err)
		}
		target.SetTime(counter, v)
		return nil
	}

	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %v", key, err)
	}
	target.SetCount(counter, v)
	return nil
}
