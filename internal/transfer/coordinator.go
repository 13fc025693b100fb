// Package transfer orchestrates uploads: stream to storage, derive
// instantaneous throughput, and publish progress to the owner's connections.
package transfer

import (
	"context"
	"io"
	"time"

	"github.com/nasmini/backend/internal/hub"
	"github.com/nasmini/backend/internal/storage"
)

// ProgressEvent is pushed after every chunk written. Total stays 0: the
// server reads a multipart stream and does not know the declared file size,
// so it never claims one; clients track percentage from their own request
// length.
type ProgressEvent struct {
	Type      string  `json:"type"`
	Bytes     int64   `json:"bytes"`
	Total     int64   `json:"total"`
	SpeedMBs  float64 `json:"speedMBs"`
	SpeedMbps float64 `json:"speedMbps"`
}

// RefreshEvent tells subscribers to re-fetch the file listing.
type RefreshEvent struct {
	Type string `json:"type"`
}

// Mirror receives completed uploads for best-effort replication.
type Mirror interface {
	MirrorUpload(user, name string)
}

type Coordinator struct {
	store  *storage.Store
	hub    *hub.Hub
	mirror Mirror // may be nil
	now    func() time.Time
}

func NewCoordinator(store *storage.Store, h *hub.Hub, mirror Mirror) *Coordinator {
	return &Coordinator{store: store, hub: h, mirror: mirror, now: time.Now}
}

// Upload streams src into the user's directory under name, broadcasting a
// progress event per chunk and a refresh event on completion. Cumulative
// byte counts are non-decreasing because chunks are written and reported in
// order from a single goroutine.
func (c *Coordinator) Upload(ctx context.Context, user, name string, src io.Reader) (int64, error) {
	started := c.now()

	total, err := c.store.WriteStream(ctx, user, name, src, func(written int64) {
		elapsed := c.now().Sub(started).Seconds()
		if elapsed <= 0 {
			elapsed = 1e-6
		}
		speedMBs := float64(written) / (1024 * 1024) / elapsed
		c.hub.Broadcast(user, ProgressEvent{
			Type:      "progress",
			Bytes:     written,
			Total:     0,
			SpeedMBs:  speedMBs,
			SpeedMbps: speedMBs * 8,
		})
	})
	if err != nil {
		return total, err
	}

	c.hub.Broadcast(user, RefreshEvent{Type: "refresh"})

	if c.mirror != nil {
		go c.mirror.MirrorUpload(user, name)
	}
	return total, nil
}
