package phaster

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/phaster/internal/models"
)

// newTestClient builds a client against a test server with the call spacing
// disabled.
func newTestClient(serverURL string) *Client {
	return NewClient(
		WithBaseURL(serverURL),
		WithWait(0),
	)
}

func writeTestFasta(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genome.fasta")
	content := ">contig_1\nATGCATGCATGC\n>contig_2\nGGGGCCCCAAAA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestClient_Submit(t *testing.T) {
	fasta := writeTestFasta(t)

	var gotContigs string
	var gotFile []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		f, _, err := r.FormFile("post-file")
		require.NoError(t, err, "multipart field post-file missing")
		defer f.Close()
		gotFile, err = io.ReadAll(f)
		require.NoError(t, err)

		gotContigs = r.FormValue("contigs")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"job_id":"ZZ_abc123","status":"Submitted"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Submit(context.Background(), fasta, SubmitOptions{Contigs: true})
	require.NoError(t, err)

	assert.Equal(t, "ZZ_abc123", resp.JobID)
	assert.Equal(t, "Submitted", resp.Status)
	assert.Equal(t, "1", gotContigs)
	assert.Contains(t, string(gotFile), ">contig_1")
}

func TestClient_Submit_ContigsFlagOff(t *testing.T) {
	fasta := writeTestFasta(t)

	var gotContigs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContigs = r.FormValue("contigs")
		w.Write([]byte(`{"job_id":"ZZ_1","status":"Submitted"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Submit(context.Background(), fasta, SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "0", gotContigs)
}

func TestClient_Submit_ServerErrorReturnsSentinel(t *testing.T) {
	fasta := writeTestFasta(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Submit(context.Background(), fasta, SubmitOptions{})

	// A rejected submission is recorded, not raised.
	require.NoError(t, err)
	assert.Equal(t, models.FailedJobID, resp.JobID)
	assert.Equal(t, models.StatusSubmissionFailed, resp.Status)
}

func TestClient_Submit_MissingField(t *testing.T) {
	fasta := writeTestFasta(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"no job_id", `{"status":"Submitted"}`, "job_id"},
		{"no status", `{"job_id":"ZZ_1"}`, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Submit(context.Background(), fasta, SubmitOptions{})

			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.wantField, missing.Field)
		})
	}
}

func TestClient_Submit_MissingFile(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.Submit(context.Background(), filepath.Join(t.TempDir(), "nope.fasta"), SubmitOptions{})
	require.Error(t, err)
}

func TestClient_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "ZZ_abc123", r.URL.Query().Get("acc"))

		w.Write([]byte(`{"job_id":"ZZ_abc123","status":"3 submissions ahead of yours..."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.Status(context.Background(), "ZZ_abc123")
	require.NoError(t, err)

	assert.Equal(t, "ZZ_abc123", status.JobID)
	assert.Equal(t, "3 submissions ahead of yours...", status.Status)
	assert.Empty(t, status.Zip)
	assert.Empty(t, status.Summary)
}

func TestClient_Status_FinishedJobCarriesZip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"ZZ_abc123","status":"Complete","summary":"2 intact regions","zip":"phaster.ca/submissions/ZZ_abc123.zip"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.Status(context.Background(), "ZZ_abc123")
	require.NoError(t, err)

	assert.Equal(t, "phaster.ca/submissions/ZZ_abc123.zip", status.Zip)
	assert.Equal(t, "2 intact regions", status.Summary)
}

func TestClient_Status_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Status(context.Background(), "ZZ_abc123")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.StatusCode)
}

func TestClient_Status_MissingStatusField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id":"ZZ_abc123"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Status(context.Background(), "ZZ_abc123")

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "status", missing.Field)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:1"), WithWait(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Status(ctx, "ZZ_abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
