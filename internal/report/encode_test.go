package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

func TestEncode_JSON(t *testing.T) {
	r := sampleTaskReport()
	r.ID = uuid.New()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, r.ID.String(), doc.ID)
	assert.Equal(t, "walltime", doc.Metric)
	require.Len(t, doc.Tasks, 2)
	require.NotNil(t, doc.Tasks[0].RelDiff)
	assert.Equal(t, -10.0, *doc.Tasks[0].RelDiff)
	assert.Nil(t, doc.Tasks[1].RelDiff, "infinite reldiff is encoded as null")
	require.NotNil(t, doc.Cumulative)
	assert.Equal(t, 95.0, doc.Cumulative.Total2)
}

func TestEncode_YAMLVersions(t *testing.T) {
	r := &Report{
		Kind: KindVersions,
		Versions: &diff.VersionDiff{
			Dropped: []*domain.PackageStats{domain.NewPackageStats("zlib", "1", "1.2", "r0")},
			RevisionChanged: []diff.PackageChange{{
				Name:  "busybox",
				Left:  domain.NewPackageStats("busybox", "", "1.36", "r0"),
				Right: domain.NewPackageStats("busybox", "", "1.36", "r1"),
			}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatYAML))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.NotNil(t, doc.Versions)
	assert.Equal(t, []string{"zlib-1_1.2-r0"}, doc.Versions.Dropped)
	assert.Equal(t, []VersionChange{{Name: "busybox", Left: "busybox-1.36-r0", Right: "busybox-1.36-r1"}},
		doc.Versions.RevisionChanged)
	assert.Empty(t, doc.Tasks)
}

func TestEncode_UnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, sampleTaskReport(), "xml")
	assert.ErrorIs(t, err, domain.ErrArgument)
}
