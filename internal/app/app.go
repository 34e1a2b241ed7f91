// Package app drives the job lifecycle: it loads the ledger, runs the
// requested submit or poll pass against the PHASTER API, and writes the
// ledger back out. Execution is strictly sequential; spacing between remote
// calls is handled by the client's rate limiter.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/phaster/internal/common"
	"github.com/ternarybob/phaster/internal/ledger"
	"github.com/ternarybob/phaster/internal/models"
	"github.com/ternarybob/phaster/internal/phaster"
)

// App holds the application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger
	Client *phaster.Client
	Ledger *ledger.Ledger
}

// New loads the job ledger and wires up the API client. A malformed ledger
// file is fatal here: refusing to run beats silently rewriting a damaged
// table.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	l, err := ledger.Load(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load job ledger: %w", err)
	}

	logger.Debug().
		Str("path", cfg.Ledger.Path).
		Int("jobs", l.Len()).
		Msg("Job ledger loaded")

	client := phaster.NewClient(
		phaster.WithBaseURL(cfg.API.URL),
		phaster.WithWait(cfg.WaitInterval()),
		phaster.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		phaster.WithLogger(logger),
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Client: client,
		Ledger: l,
	}, nil
}

// SubmitAll submits each FASTA file in turn and records the outcome in the
// ledger. A rejected submission is recorded under the "Failed" sentinel and
// does not stop the batch; transport failures and malformed responses do.
func (a *App) SubmitAll(ctx context.Context, files []string, contigs bool) error {
	for _, file := range files {
		resp, err := a.Client.Submit(ctx, file, phaster.SubmitOptions{Contigs: contigs})
		if err != nil {
			return fmt.Errorf("submission of %s failed: %w", file, err)
		}

		a.Ledger.Put(models.NewJobRecord(file, resp.JobID, resp.Status))

		a.Logger.Info().
			Str("file", file).
			Str("job_id", resp.JobID).
			Str("status", resp.Status).
			Msg("Submission recorded")
	}
	return nil
}

// PollAll polls every tracked job once, skipping entries recorded under the
// "Failed" sentinel. Poll failures and download failures are recorded or
// logged per job; only transport errors and malformed responses abort the
// pass.
func (a *App) PollAll(ctx context.Context) error {
	for _, rec := range a.Ledger.Records() {
		if rec.IsFailedSentinel() {
			a.Logger.Debug().
				Str("file", rec.Filename).
				Msg("Skipping failed submission")
			continue
		}
		if err := a.pollOne(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// pollOne polls a single job and updates its ledger record.
func (a *App) pollOne(ctx context.Context, rec models.JobRecord) error {
	status, err := a.Client.Status(ctx, rec.JobID)

	var apiErr *phaster.APIError
	if errors.As(err, &apiErr) {
		rec.Status = models.StatusPollFailed
		rec.Touch()
		a.Ledger.Put(rec)
		a.Logger.Warn().
			Str("job_id", rec.JobID).
			Int("code", apiErr.StatusCode).
			Msg("Status poll failed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("status poll for %s failed: %w", rec.JobID, err)
	}

	newStatus := status.Status

	switch models.ClassifyStatus(status.Status, status.Zip) {
	case models.StatusQueued, models.StatusRunning:
		a.Logger.Info().
			Str("job_id", rec.JobID).
			Str("status", status.Status).
			Msg("Still waiting")

	case models.StatusFinished:
		a.Logger.Info().
			Str("job_id", rec.JobID).
			Msg("Job appears to be finished")
		if status.Summary != "" {
			a.Logger.Info().
				Str("job_id", rec.JobID).
				Str("summary", status.Summary).
				Msg("Job summary")
		}

		err := a.Client.DownloadResults(ctx, status, filepath.Base(rec.Filename))
		switch {
		case err == nil:
			newStatus = models.StatusDownloaded
		case errors.Is(err, phaster.ErrAlreadyDownloaded):
			// Treated as already handled; the raw remote status is kept.
			a.Logger.Warn().
				Str("job_id", rec.JobID).
				Str("file", rec.Filename).
				Msg("Output directory exists, skipping download")
		default:
			a.Logger.Error().
				Str("job_id", rec.JobID).
				Err(err).
				Msg("Result download failed")
		}

	default:
		// Unrecognised status text is passed through unchanged.
		a.Logger.Info().
			Str("job_id", rec.JobID).
			Str("status", status.Status).
			Msg("Unrecognised job status")
	}

	rec.JobID = status.JobID
	rec.Status = newStatus
	rec.Touch()
	a.Ledger.Put(rec)

	return nil
}

// Save writes the ledger back to its configured path.
func (a *App) Save() error {
	if err := a.Ledger.Save(a.Config.Ledger.Path); err != nil {
		return fmt.Errorf("failed to save job ledger: %w", err)
	}
	a.Logger.Debug().
		Str("path", a.Config.Ledger.Path).
		Int("jobs", a.Ledger.Len()).
		Msg("Job ledger saved")
	return nil
}
