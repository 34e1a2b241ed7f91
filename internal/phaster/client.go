// Package phaster is a client for the PHASTER prophage annotation API
// (https://phaster.ca). The API has two endpoints sharing one URL: a
// multipart POST that submits a genome and returns an accession, and a GET
// that reports job status and, once finished, links to the result archive.
package phaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/phaster/internal/models"
)

const (
	// DefaultBaseURL is the public PHASTER API endpoint.
	DefaultBaseURL = "http://phaster.ca/phaster_api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultWait is the default spacing between consecutive remote calls.
	// PHASTER is a free academic service; the wait is a fixed courtesy
	// interval, not adaptive to response codes or rate-limit headers.
	DefaultWait = 10 * time.Second

	// fileField is the multipart field name the API expects the genome under.
	fileField = "post-file"
)

// Client is a PHASTER API client. All calls go through a shared rate
// limiter so that submits, polls, and archive fetches are spaced by the
// configured wait interval.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithWait sets the fixed interval between consecutive remote calls.
// A zero or negative interval disables the spacing.
func WithWait(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a new PHASTER API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultWait), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit posts a FASTA file to the API and returns the issued job id and
// initial status. A rejected submission (non-2xx) is not an error: it is
// reported as the "Failed" sentinel with status "Submission failed" so the
// caller can record it in the ledger and carry on with the batch. A 2xx
// response missing the job_id or status field returns *MissingFieldError.
func (c *Client) Submit(ctx context.Context, fastaPath string, opts SubmitOptions) (*SubmitResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open fasta file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fileField, filepath.Base(fastaPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read fasta file: %w", err)
	}
	contigs := "0"
	if opts.Contigs {
		contigs = "1"
	}
	if err := writer.WriteField("contigs", contigs); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL).
			Str("file", fastaPath).
			Bool("contigs", opts.Contigs).
			Msg("PHASTER submit request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		if c.logger != nil {
			c.logger.Warn().
				Int("code", resp.StatusCode).
				Str("file", fastaPath).
				Str("body", string(respBody)).
				Msg("Submission rejected by PHASTER")
		}
		return &SubmitResponse{
			JobID:  models.FailedJobID,
			Status: models.StatusSubmissionFailed,
		}, nil
	}

	fields, err := c.decodeResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	jobID, ok := fields["job_id"].(string)
	if !ok {
		return nil, &MissingFieldError{Field: "job_id"}
	}
	status, ok := fields["status"].(string)
	if !ok {
		return nil, &MissingFieldError{Field: "status"}
	}

	return &SubmitResponse{JobID: jobID, Status: status}, nil
}

// Status polls the API for a job's state. A non-2xx response returns
// *APIError so the caller can record the failure without aborting the
// batch; a 2xx response missing the status or job_id field returns
// *MissingFieldError.
func (c *Client) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("acc", jobID)
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL).
			Str("acc", jobID).
			Msg("PHASTER status request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Endpoint:   c.baseURL,
		}
	}

	fields, err := c.decodeResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	status := &StatusResponse{}
	if status.JobID, _ = fields["job_id"].(string); status.JobID == "" {
		return nil, &MissingFieldError{Field: "job_id"}
	}
	if status.Status, _ = fields["status"].(string); status.Status == "" {
		return nil, &MissingFieldError{Field: "status"}
	}
	status.Summary, _ = fields["summary"].(string)
	status.Zip, _ = fields["zip"].(string)

	return status, nil
}

// decodeResponse decodes a JSON body generically and logs every key/value
// pair at debug level, mirroring what the API reports back.
func (c *Client) decodeResponse(body io.Reader) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if c.logger != nil {
		for key, value := range fields {
			c.logger.Debug().
				Str(key, fmt.Sprintf("%v", value)).
				Msg("PHASTER response field")
		}
	}

	return fields, nil
}
