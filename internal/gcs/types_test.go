package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://ledger-exports/exports/u1/job.csv")
	require.NoError(t, err)
	assert.Equal(t, "ledger-exports", bucket)
	assert.Equal(t, "exports/u1/job.csv", object)

	for _, bad := range []string{"", "s3://b/o", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, _, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestURIAndFilename(t *testing.T) {
	uri := URI("b", "exports/u1/2025.xlsx")
	assert.Equal(t, "gs://b/exports/u1/2025.xlsx", uri)
	assert.Equal(t, "2025.xlsx", Filename(uri))
	assert.Equal(t, "file.csv", Filename("gs://b/file.csv"))
}
