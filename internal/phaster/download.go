package phaster

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DownloadResults fetches the result archive and summary for a finished job.
// outputBase is the base name of the submitted file; the output directory is
// its text before the first '.', holding <dir>.summary.txt and
// <dir>.results.zip. An existing output directory returns
// ErrAlreadyDownloaded and writes nothing; a failed archive fetch returns
// *APIError.
func (c *Client) DownloadResults(ctx context.Context, status *StatusResponse, outputBase string) error {
	dir := strings.SplitN(filepath.Base(outputBase), ".", 2)[0]

	if _, err := os.Stat(dir); err == nil {
		return ErrAlreadyDownloaded
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	summaryPath := filepath.Join(dir, dir+".summary.txt")
	if err := os.WriteFile(summaryPath, []byte(status.Summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug().
			Str("path", summaryPath).
			Msg("Wrote job summary")
	}

	// The zip field carries host/path without a scheme.
	zipURL := "http://" + status.Zip

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch result archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   zipURL,
		}
	}

	zipPath := filepath.Join(dir, dir+".results.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to write result archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write result archive: %w", err)
	}

	if c.logger != nil {
		c.logger.Info().
			Str("job_id", status.JobID).
			Str("path", zipPath).
			Int64("bytes", written).
			Msg("Downloaded result archive")
	}

	return nil
}
