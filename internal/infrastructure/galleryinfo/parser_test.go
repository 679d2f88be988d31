package galleryinfo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/galleryinfo"
)

const sampleSidecar = `Title: Alpha
Upload Time: 2024-01-02 03:04:05
Uploaded By: alice
Downloaded: 2024-06-07 08:09:10
Tags: artist:bob, group:g1, loli
Uploader's Comments:
hello
world`

func TestParse(t *testing.T) {
	t.Parallel()

	info, err := galleryinfo.Parse(strings.NewReader(sampleSidecar))
	require.NoError(t, err)

	assert.Equal(t, "Alpha", info.Title)
	assert.Equal(t, "alice", info.UploadAccount)
	assert.Equal(t, "2024-01-02 03:04:05", info.UploadTime.Format("2006-01-02 15:04:05"))
	assert.Equal(t, "2024-06-07 08:09:10", info.DownloadTime.Format("2006-01-02 15:04:05"))
	assert.Equal(t, "hello\nworld", info.Comment)
	require.Len(t, info.Tags, 3)
	assert.Equal(t, "artist", info.Tags[0].Name())
	assert.Equal(t, "bob", info.Tags[0].Value())
	assert.Equal(t, "untagged", info.Tags[2].Name())
	assert.Equal(t, "loli", info.Tags[2].Value())
}

func TestParse_MissingRequiredKey(t *testing.T) {
	t.Parallel()

	_, err := galleryinfo.Parse(strings.NewReader("Title: Alpha\n"))
	require.Error(t, err)
}

func TestParse_NoComments(t *testing.T) {
	t.Parallel()

	sidecar := `Title: Alpha
Upload Time: 2024-01-02 03:04:05
Uploaded By: alice
Downloaded: 2024-06-07 08:09:10
Tags: artist:bob`

	info, err := galleryinfo.Parse(strings.NewReader(sidecar))
	require.NoError(t, err)
	assert.Empty(t, info.Comment)
}
