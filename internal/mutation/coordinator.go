package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/patio/internal/diff"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
)

var (
	// ErrUnknownVehicle is returned when the edited id is not in the store.
	ErrUnknownVehicle = errors.New("unknown vehicle")

	// ErrMissingRequired is returned by Create when the draft lacks a plate,
	// a positive price, type, fuel or one of the mandatory photos.
	ErrMissingRequired = errors.New("missing required fields")
)

// Remote is the part of the webhook API the coordinator needs.
type Remote interface {
	UpdateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Partial, error)
	CreateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Vehicle, error)
}

// Coordinator owns the lifecycle of edits and creations.
type Coordinator struct {
	store  *state.Store
	remote Remote
	engine *diff.Engine
	log    *slog.Logger
	newID  func() string
}

// NewCoordinator wires a Coordinator to the session store.
func NewCoordinator(store *state.Store, remote Remote, engine *diff.Engine, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		remote: remote,
		engine: engine,
		log:    logging.OrDiscard(log),
		newID:  uuid.NewString,
	}
}

// BeginFieldEdit sets field to value on vehicle id and blocks until the
// server confirms or rejects it. On success the confirmed record is returned
// and stored; on failure the pre-edit record is restored and the error is
// returned. A vehicle with another mutation in flight fails with
// state.ErrBusy.
func (c *Coordinator) BeginFieldEdit(ctx context.Context, id string, field vehicle.Field, value any) (vehicle.Vehicle, error) {
	if !field.Valid() {
		return vehicle.Vehicle{}, fmt.Errorf("%w: %d", vehicle.ErrUnknownField, int(field))
	}
	release, err := c.store.Claim(id)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	defer release()

	original, ok := c.store.Get(id)
	if !ok {
		return vehicle.Vehicle{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	updated := original
	if err := field.Set(&updated, value); err != nil {
		return original, err
	}

	log := c.log.With("vehicle_id", id, "field", field.Name())
	isPlate := field == vehicle.FieldPlate
	if vehicle.IsEditable(field) {
		overlay := state.Mutation{
			Updating:            true,
			Fields:              []vehicle.Field{field},
			PlateRelatedLoading: isPlate,
		}
		if !c.store.ApplyOptimistic(updated, overlay) {
			return original, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
		}
	}

	payload := c.engine.Build(ctx, original, updated)
	if payload.Empty() {
		log.Debug("edit produced no changes")
		c.store.Restore(original)
		return original, nil
	}

	partial, err := c.remote.UpdateVehicle(ctx, payload)
	if err != nil {
		log.Warn("edit rejected, restoring", "error", err)
		c.store.Restore(original)
		return original, fmt.Errorf("update vehicle %s: %w", id, err)
	}

	confirmed := partial.Apply(updated)
	confirmed.ID = id
	c.store.UpdateConfirmed(id, confirmed)
	log.Info("edit confirmed", "echoed_fields", len(partial))
	return confirmed, nil
}

// Create validates draft, shows it under a temporary id, and replaces that
// entry with the server record once it is stored. A failed creation removes
// the temporary entry.
func (c *Coordinator) Create(ctx context.Context, draft vehicle.Vehicle) (vehicle.Vehicle, error) {
	if missing := draft.MissingRequired(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = f.Name()
		}
		return vehicle.Vehicle{}, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(names, ", "))
	}

	tempID := vehicle.TempIDPrefix + c.newID()
	draft.ID = tempID
	release, err := c.store.Claim(tempID)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	defer release()

	log := c.log.With("vehicle_id", tempID)
	c.store.InsertOptimistic(draft, state.Mutation{Updating: true})
	c.store.SetLoading([]string{tempID}, true)

	created, err := c.remote.CreateVehicle(ctx, c.engine.Creation(ctx, draft))
	if err != nil {
		log.Warn("create rejected, discarding draft", "error", err)
		c.store.Remove(tempID)
		return vehicle.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}

	c.store.ConfirmInsert(tempID, created)
	log.Info("vehicle created", "server_id", created.ID)
	return created, nil
}
