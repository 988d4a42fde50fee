package buildstats

import (
	"bytes"
	"testing"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_SingleRecordTasks(t *testing.T) {
	data := []byte(`[
  {
    "name": "zlib",
    "epoch": null,
    "version": "1.2.11",
    "revision": "r0",
    "tasks": {
      "do_compile": {
        "start_time": 100.0,
        "elapsed_time": 12.5,
        "status": "PASSED",
        "iostat": {"read_bytes": 1024, "write_bytes": 2048},
        "rusage": {"ru_utime": 3.0, "ru_stime": 1.0, "ru_inblock": 7, "ru_oublock": 9},
        "child_rusage": {"ru_utime": 0.5, "ru_stime": 0.5}
      }
    }
  },
  {
    "name": "shadow",
    "epoch": 2,
    "version": "4.8.1",
    "revision": "r3",
    "tasks": {"do_install": {"elapsed_time": 1.0}}
  }
]`)

	bs, err := ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, bs, 2)

	zlib := bs["zlib"]
	require.NotNil(t, zlib)
	assert.Equal(t, "", zlib.Epoch)
	assert.Equal(t, "zlib-1.2.11-r0", zlib.NEVR())
	require.Len(t, zlib.Tasks["do_compile"], 1)

	task := zlib.Tasks["do_compile"][0]
	assert.Equal(t, 5.0, task.CPUTime())
	assert.Equal(t, 12.5, task.WallTime())
	assert.Equal(t, 1024.0, task.ReadBytes())
	assert.Equal(t, 9.0, task.WriteOps())

	shadow := bs["shadow"]
	require.NotNil(t, shadow)
	assert.Equal(t, "shadow-2_4.8.1-r3", shadow.NEVR())
	assert.Equal(t, 0.0, shadow.Tasks["do_install"][0].CPUTime())
}

func TestParseJSON_RecordLists(t *testing.T) {
	data := []byte(`[{"name": "foo", "epoch": "", "version": "1.0", "revision": "r0",
		"tasks": {"do_fetch": [{"elapsed_time": 1}, {"elapsed_time": 3}]}}]`)

	bs, err := ParseJSON(data)
	require.NoError(t, err)
	runs := bs["foo"].Tasks["do_fetch"]
	require.Len(t, runs, 2)
	assert.Equal(t, 2.0, runs.Mean(domain.MetricWallTime))
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not JSON", `this is not json`, domain.ErrFormat},
		{"object instead of array", `{"name": "foo"}`, domain.ErrFormat},
		{"duplicate package", `[{"name": "foo", "version": "1", "revision": "r0"}, {"name": "foo", "version": "2", "revision": "r0"}]`, domain.ErrMerge},
		{"package without name", `[{"version": "1", "revision": "r0"}]`, domain.ErrParse},
		{"bad task record", `[{"name": "foo", "version": "1", "revision": "r0", "tasks": {"do_x": "oops"}}]`, domain.ErrParse},
		{"empty task list", `[{"name": "foo", "version": "1", "revision": "r0", "tasks": {"do_x": []}}]`, domain.ErrParse},
		{"null task", `[{"name": "foo", "version": "1", "revision": "r0", "tasks": {"do_x": null}}]`, domain.ErrParse},
		{"null record in list", `[{"name": "foo", "version": "1", "revision": "r0", "tasks": {"do_x": [{"elapsed_time": 2}, null]}}]`, domain.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWriteJSON_RoundTripsThroughParser(t *testing.T) {
	want := domain.BuildStats{
		"foo": &domain.PackageStats{
			Name: "foo", Epoch: "1", Version: "2.0", Revision: "r1",
			Tasks: map[string]domain.TaskRuns{
				"do_compile": {
					{StartTime: 1, ElapsedTime: 2, Status: "PASSED", Rusage: domain.Rusage{Utime: 1.5}},
					{StartTime: 5, ElapsedTime: 4, Status: "PASSED", IOStat: domain.IOStat{ReadBytes: 10}},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, want))

	got, err := ParseJSON(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collection changed after dump (-want +got):\n%s", diff)
	}
}
