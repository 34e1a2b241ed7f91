package phaster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zipFieldFor turns a test server URL into the scheme-less host/path value
// the PHASTER API reports in its zip field.
func zipFieldFor(serverURL, path string) string {
	return strings.TrimPrefix(serverURL, "http://") + path
}

func TestDownloadResults(t *testing.T) {
	t.Chdir(t.TempDir())

	archive := []byte("PK\x03\x04 fake archive bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submissions/ZZ_abc123.zip", r.URL.Path)
		w.Write(archive)
	}))
	defer server.Close()

	status := &StatusResponse{
		JobID:   "ZZ_abc123",
		Status:  "Complete",
		Summary: "2 intact regions found",
		Zip:     zipFieldFor(server.URL, "/submissions/ZZ_abc123.zip"),
	}

	client := newTestClient(server.URL)
	err := client.DownloadResults(context.Background(), status, "genome.fasta")
	require.NoError(t, err)

	summary, err := os.ReadFile(filepath.Join("genome", "genome.summary.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2 intact regions found", string(summary))

	zip, err := os.ReadFile(filepath.Join("genome", "genome.results.zip"))
	require.NoError(t, err)
	assert.Equal(t, archive, zip)
}

func TestDownloadResults_DirFromFirstDot(t *testing.T) {
	t.Chdir(t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip"))
	}))
	defer server.Close()

	status := &StatusResponse{
		JobID:   "ZZ_1",
		Summary: "ok",
		Zip:     zipFieldFor(server.URL, "/x.zip"),
	}

	client := newTestClient(server.URL)
	require.NoError(t, client.DownloadResults(context.Background(), status, "sample.contigs.fa"))

	// Directory name is the basename text before the first '.'.
	_, err := os.Stat(filepath.Join("sample", "sample.results.zip"))
	assert.NoError(t, err)
}

func TestDownloadResults_ExistingDirSkips(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("genome", 0755))

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("zip"))
	}))
	defer server.Close()

	status := &StatusResponse{
		JobID:   "ZZ_abc123",
		Summary: "should not be written",
		Zip:     zipFieldFor(server.URL, "/x.zip"),
	}

	client := newTestClient(server.URL)
	err := client.DownloadResults(context.Background(), status, "genome.fasta")

	require.ErrorIs(t, err, ErrAlreadyDownloaded)
	assert.Zero(t, hits, "archive must not be fetched again")
	_, statErr := os.Stat(filepath.Join("genome", "genome.summary.txt"))
	assert.True(t, os.IsNotExist(statErr), "summary must not be written")
}

func TestDownloadResults_ZipFetchError(t *testing.T) {
	t.Chdir(t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	status := &StatusResponse{
		JobID:   "ZZ_abc123",
		Summary: "done",
		Zip:     zipFieldFor(server.URL, "/missing.zip"),
	}

	client := newTestClient(server.URL)
	err := client.DownloadResults(context.Background(), status, "genome.fasta")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
