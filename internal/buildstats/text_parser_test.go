package buildstats

import (
	"errors"
	"strings"
	"testing"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/google/go-cmp/cmp"
)

const sampleTaskFile = `Event: TaskStarted
Started: 1601378362.02
rusage ru_utime: 1.0
rusage ru_stime: 0.5
rusage ru_maxrss: 40960
rusage ru_inblock: 16
rusage ru_oublock: 128
Child rusage ru_utime: 0.2
Child rusage ru_stime: 0.1
Child rusage ru_inblock: 4
Child rusage ru_oublock: 8
IO rchar: 123456
IO read_bytes: 4096
IO write_bytes: 1048576
IO cancelled_write_bytes: 0
Status: PASSED
Ended: 1601378364.52
`

func TestParseTaskText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		checks  func(t *testing.T, task *domain.TaskStats)
	}{
		{
			name: "complete task file",
			text: sampleTaskFile,
			checks: func(t *testing.T, task *domain.TaskStats) {
				want := &domain.TaskStats{
					StartTime:   1601378362.02,
					ElapsedTime: task.ElapsedTime,
					Status:      "PASSED",
					IOStat:      domain.IOStat{RChar: 123456, ReadBytes: 4096, WriteBytes: 1048576},
					Rusage:      domain.Rusage{Utime: 1.0, Stime: 0.5, Maxrss: 40960, Inblock: 16, Oublock: 128},
					ChildRusage: domain.Rusage{Utime: 0.2, Stime: 0.1, Inblock: 4, Oublock: 8},
				}
				if diff := cmp.Diff(want, task); diff != "" {
					t.Errorf("unexpected task (-want +got):\n%s", diff)
				}
				if task.ElapsedTime < 2.49 || task.ElapsedTime > 2.51 {
					t.Errorf("expected ElapsedTime≈2.5, got %v", task.ElapsedTime)
				}
			},
		},
		{
			name: "elapsed time",
			text: "Started: 10.0\nEnded: 12.5\n",
			checks: func(t *testing.T, task *domain.TaskStats) {
				if task.ElapsedTime != 2.5 {
					t.Errorf("expected ElapsedTime=2.5, got %v", task.ElapsedTime)
				}
				if task.StartTime != 10.0 {
					t.Errorf("expected StartTime=10.0, got %v", task.StartTime)
				}
			},
		},
		{
			name: "cputime from own and child rusage",
			text: "Started: 0\nrusage ru_utime: 1.0\nrusage ru_stime: 0.5\nChild rusage ru_utime: 0.2\nChild rusage ru_stime: 0.1\nEnded: 1\n",
			checks: func(t *testing.T, task *domain.TaskStats) {
				if got := task.CPUTime(); got < 1.7999 || got > 1.8001 {
					t.Errorf("expected CPUTime=1.8, got %v", got)
				}
			},
		},
		{
			name: "unknown keys and blank lines ignored",
			text: "Started: 1\n\nFoo: bar\nIO unknown_counter: 3\nEnded: 2\n",
			checks: func(t *testing.T, task *domain.TaskStats) {
				if task.ElapsedTime != 1 {
					t.Errorf("expected ElapsedTime=1, got %v", task.ElapsedTime)
				}
			},
		},
		{
			name:    "missing end time",
			text:    "Started: 1\nStatus: FAILED\n",
			wantErr: true,
		},
		{
			name:    "missing start time",
			text:    "Ended: 1\n",
			wantErr: true,
		},
		{
			name:    "line without separator",
			text:    "Started: 1\nbroken line\nEnded: 2\n",
			wantErr: true,
		},
		{
			name:    "non-numeric block counter",
			text:    "Started: 1\nrusage ru_inblock: many\nEnded: 2\n",
			wantErr: true,
		},
		{
			name:    "end before start",
			text:    "Started: 5\nEnded: 2\n",
			wantErr: true,
		},
		{
			name:    "line longer than the scanner buffer",
			text:    "Started: 1\nStatus: " + strings.Repeat("x", 70*1024) + "\nEnded: 2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := ParseTaskText(strings.NewReader(tt.text))

			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTaskText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrParse) {
					t.Errorf("expected ErrParse, got %v", err)
				}
				return
			}
			if tt.checks != nil {
				tt.checks(t, task)
			}
		})
	}
}
