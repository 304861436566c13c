package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cepro/gridsim/repository"
	"github.com/google/uuid"
)

// uploadRunLimit is how many runs are offered for upload on each attempt, in each of the fresh and retry sets.
const uploadRunLimit = 10

// uploadChunkLimit defines how many tick rows we can upload in one supabase HTTP request
const uploadChunkLimit = 500

// Uploader inserts rows into a remote table.
type Uploader interface {
	Insert(table string, rows interface{}) error
}

// DataPlatform handles the upload of archived runs to Supabase.
// Runs are bufferred on disk in a SQLite database by the CLI and removed once they have been uploaded.
type DataPlatform struct {
	repository *repository.Repository
	uploader   Uploader
	logger     *slog.Logger
}

func New(uploader Uploader, repository *repository.Repository) *DataPlatform {
	return &DataPlatform{
		repository: repository,
		uploader:   uploader,
		logger:     slog.Default().With("component", "data_platform"),
	}
}

// Run loops forever, attempting an upload every `interval`. Exits when the context is cancelled.
func (d *DataPlatform) Run(ctx context.Context, interval time.Duration) {

	uploadTicker := time.NewTicker(interval)
	defer uploadTicker.Stop()

	d.AttemptUpload()
	for {
		select {
		case <-ctx.Done():
			return
		case <-uploadTicker.C:
			d.AttemptUpload()
		}
	}
}

// AttemptUpload uploads archived runs: first any that have not been seen before, then any that have already
// failed an upload at least once. It returns the number of runs uploaded.
func (d *DataPlatform) AttemptUpload() int {
	uploaded := 0

	for _, fresh := range []bool{true, false} {
		runs, err := d.repository.GetRuns(uploadRunLimit, fresh)
		if err != nil {
			d.logger.Error("Failed to query archived runs", "fresh", fresh, "error", err)
			continue
		}
		for _, run := range runs {
			if err := d.handleRun(run); err != nil {
				d.logger.Error("Failed to upload run", "run_id", run.ID, "fresh", fresh, "error", err)
				continue
			}
			uploaded++
		}
	}

	return uploaded
}

// handleRun attempts to upload the given run and its ticks. If successfull, it deletes the run from the database, if
// unsuccessful, it increments the 'upload attempt count' column and leaves the run in the database for another time.
//
// The run row is uploaded last so that a run only appears remotely once all of its ticks have.
// TODO: upsert tick rows, so that a retry after the ticks went up but the run row failed does not hit duplicate keys.
func (d *DataPlatform) handleRun(run repository.StoredRun) error {

	ticks, err := d.repository.GetTicks(run.ID)
	if err != nil {
		return fmt.Errorf("get ticks: %w", err)
	}

	uploadErr := d.upload(run, ticks)
	if uploadErr != nil {
		uploadErr := fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementUploadAttemptCount(run.ID)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	if err := d.repository.DeleteRun(run.ID); err != nil {
		return fmt.Errorf("delete uploaded run %s: %w", run.ID, err)
	}

	d.logger.Info("Uploaded run", "run_id", run.ID, "db_records", len(ticks)+1)
	return nil
}

func (d *DataPlatform) upload(run repository.StoredRun, ticks []repository.StoredTick) error {
	converted := convertTicks(ticks)
	for start := 0; start < len(converted); start += uploadChunkLimit {
		end := min(start+uploadChunkLimit, len(converted))
		if err := d.uploader.Insert(ticksTable, converted[start:end]); err != nil {
			return fmt.Errorf("insert ticks %d-%d: %w", start, end, err)
		}
	}
	if err := d.uploader.Insert(runsTable, []supabaseRun{convertRun(run)}); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Archive stores a completed run ready for upload.
func Archive(repo *repository.Repository, run repository.StoredRun, ticks []repository.StoredTick) (uuid.UUID, error) {
	if err := repo.AddRun(run, ticks); err != nil {
		return uuid.Nil, fmt.Errorf("archive run: %w", err)
	}
	return run.ID, nil
}
