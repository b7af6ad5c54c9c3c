// Package jobs runs the background work that follows a recorded download:
// asset counter increments through a durable queue, and the nightly
// subscription-expiry sweep.
package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/sirupsen/logrus"
)

// Counters is the catalog write surface the workers need.
type Counters interface {
	IncrementDownloads(ctx context.Context, assetID string) error
}

// AssetDownloadedArgs carries one counter increment.
type AssetDownloadedArgs struct {
	AssetID string `json:"asset_id"`
}

func (AssetDownloadedArgs) Kind() string { return "asset_downloaded" }

// AssetDownloadedWorker bumps the asset's download counter. The increment is
// queued rather than done inline so a slow catalog write never delays the
// recording response.
type AssetDownloadedWorker struct {
	river.WorkerDefaults[AssetDownloadedArgs]
	counters Counters
	log      logrus.FieldLogger
}

func (w *AssetDownloadedWorker) Work(ctx context.Context, job *river.Job[AssetDownloadedArgs]) error {
	if err := w.counters.IncrementDownloads(ctx, job.Args.AssetID); err != nil {
		w.log.WithError(err).WithField("asset_id", job.Args.AssetID).Warn("counter increment failed")
		return err
	}
	return nil
}

// Client owns the river queue client and enqueues work for the service.
type Client struct {
	river *river.Client[pgx.Tx]
}

func NewClient(pool *pgxpool.Pool, counters Counters, log logrus.FieldLogger) (*Client, error) {
	if pool == nil {
		return nil, errors.New("jobs: pgx pool is required")
	}
	if counters == nil {
		return nil, errors.New("jobs: counters are required")
	}
	if log == nil {
		log = logrus.New()
	}
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, &AssetDownloadedWorker{counters: counters, log: log}); err != nil {
		return nil, err
	}
	rc, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}
	return &Client{river: rc}, nil
}

// Start begins background job processing.
func (c *Client) Start(ctx context.Context) error { return c.river.Start(ctx) }

// Stop drains and stops job processing.
func (c *Client) Stop(ctx context.Context) error { return c.river.Stop(ctx) }

// EnqueueAssetDownloaded queues one counter increment.
func (c *Client) EnqueueAssetDownloaded(ctx context.Context, assetID string) error {
	if assetID == "" {
		return errors.New("jobs: asset id required")
	}
	_, err := c.river.Insert(ctx, AssetDownloadedArgs{AssetID: assetID}, nil)
	return err
}
