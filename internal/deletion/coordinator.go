package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
	"github.com/five82/patio/internal/webhook"
)

// ErrNotFound is returned when none of the requested ids are in the store.
var ErrNotFound = errors.New("no matching vehicles")

// Remote is the part of the webhook API used for deletions.
type Remote interface {
	DeleteVehicle(ctx context.Context, req webhook.DeleteRequest) error
	BulkDeleteVehicles(ctx context.Context, reqs []webhook.DeleteRequest) error
}

// Coordinator runs confirm-then-remove deletions against the session store.
type Coordinator struct {
	store   *state.Store
	remote  Remote
	locator imagecodec.Locator
	log     *slog.Logger
}

// NewCoordinator wires a Coordinator to the session store.
func NewCoordinator(store *state.Store, remote Remote, locator imagecodec.Locator, log *slog.Logger) *Coordinator {
	return &Coordinator{store: store, remote: remote, locator: locator, log: logging.OrDiscard(log)}
}

// Delete removes a single vehicle through the single-record endpoint.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	_, err := c.run(ctx, []string{id}, func(reqs []webhook.DeleteRequest) error {
		return c.remote.DeleteVehicle(ctx, reqs[0])
	})
	return err
}

// BulkDelete removes every listed vehicle that is present in the store with
// one aggregated call and returns how many were removed. Ids that are not in
// the store are ignored; if none are, it fails with ErrNotFound.
func (c *Coordinator) BulkDelete(ctx context.Context, ids []string) (int, error) {
	return c.run(ctx, ids, func(reqs []webhook.DeleteRequest) error {
		return c.remote.BulkDeleteVehicles(ctx, reqs)
	})
}

func (c *Coordinator) run(ctx context.Context, ids []string, send func([]webhook.DeleteRequest) error) (int, error) {
	snap := c.store.Snapshot()
	seen := make(map[string]struct{}, len(ids))
	var resolved []string
	var reqs []webhook.DeleteRequest
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		v, ok := snap.Find(id)
		if !ok {
			continue
		}
		resolved = append(resolved, id)
		reqs = append(reqs, webhook.DeleteRequest{ID: id, Images: c.imagePaths(v)})
	}
	if len(resolved) == 0 {
		return 0, ErrNotFound
	}

	release, err := c.store.Claim(resolved...)
	if err != nil {
		return 0, err
	}
	defer release()

	c.store.SetLoading(resolved, true)
	if err := send(reqs); err != nil {
		c.store.SetLoading(resolved, false)
		c.log.Warn("delete rejected", "vehicle_ids", resolved, "error", err)
		return 0, fmt.Errorf("delete %d vehicle(s): %w", len(resolved), err)
	}

	c.store.RemoveMany(resolved)
	c.log.Info("vehicles deleted", "vehicle_ids", resolved)
	return len(resolved), nil
}

// imagePaths collects the storage paths of the uploaded photos of v.
func (c *Coordinator) imagePaths(v vehicle.Vehicle) []string {
	paths := []string{}
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		ref := v.Photo(slot)
		if ref == "" || imagecodec.IsLocal(ref) {
			continue
		}
		if path, ok := c.locator.ExtractRemotePath(ref); ok {
			paths = append(paths, path)
		}
	}
	return paths
}
