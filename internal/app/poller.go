package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 2 * time.Minute
)

// VehicleFetcher loads the full vehicle list.
type VehicleFetcher interface {
	FetchVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
}

// StartPoller launches a background goroutine that merges the server's list
// into the store at a fixed cadence, backing off while the webhook is
// unreachable. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client VehicleFetcher, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client, log)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// refresh fetches once and merges the result, keeping in-flight edits.
func refresh(ctx context.Context, store *state.Store, client VehicleFetcher, log *slog.Logger) {
	vehicles, err := client.FetchVehicles(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.RecordFailure(err)
		log.Warn("vehicle poll failed", "error", err)
		return
	}
	store.SmartMerge(vehicles)
	log.Debug("vehicle poll merged", "count", len(vehicles))
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
