package diff

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/vehicle"
)

const encodeParallelism = 4

// Encoder reads a local photo reference into a transport image.
type Encoder interface {
	Encode(ctx context.Context, ref string, slot int) (imagecodec.Image, error)
}

// Engine builds payloads. It is safe for concurrent use.
type Engine struct {
	codec   Encoder
	locator imagecodec.Locator
	log     *slog.Logger
}

// NewEngine returns an Engine. A nil codec reads from the filesystem.
func NewEngine(codec Encoder, locator imagecodec.Locator, log *slog.Logger) *Engine {
	if codec == nil {
		codec = imagecodec.NewCodec(nil, 0)
	}
	return &Engine{codec: codec, locator: locator, log: logging.OrDiscard(log)}
}

type slotChange struct {
	slot     int
	previous string
	next     string

	image  imagecodec.Image
	encErr error
}

// Build compares original against updated and returns the changes. It never
// fails: photos that cannot be read fall back to a plain assignment and
// removals whose id or path cannot be derived are dropped.
func (e *Engine) Build(ctx context.Context, original, updated vehicle.Vehicle) Payload {
	p := Payload{ID: original.ID, VehicleName: original.ModelName}

	for _, f := range vehicle.ScalarFields() {
		if next := f.Get(updated); next != f.Get(original) {
			p.Fields = append(p.Fields, FieldChange{Field: f, Value: next})
		}
	}

	var changes []*slotChange
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		prev, next := original.Photo(slot), updated.Photo(slot)
		if prev == next {
			continue
		}
		changes = append(changes, &slotChange{slot: slot, previous: prev, next: next})
	}
	e.encodeAll(ctx, changes)

	for _, c := range changes {
		field := vehicle.PhotoField(c.slot)
		switch {
		case c.next == "":
			if rm, ok := e.removal(c.slot, c.previous, false); ok {
				p.Images = append(p.Images, rm)
			} else {
				e.log.Warn("photo removal dropped: id or path not derivable",
					"vehicle_id", original.ID, "slot", c.slot, "ref", c.previous)
			}
		case imagecodec.IsLocal(c.next) && c.encErr == nil:
			p.Images = append(p.Images, addition(c.slot, c.image))
			if c.previous != "" {
				if rm, ok := e.removal(c.slot, c.previous, true); ok {
					p.Images = append(p.Images, rm)
				}
			}
		case imagecodec.IsLocal(c.next):
			e.log.Warn("photo unreadable, sending reference",
				"vehicle_id", original.ID, "slot", c.slot, "error", c.encErr)
			p.Fields = append(p.Fields, FieldChange{Field: field, Value: c.next})
		default:
			p.Fields = append(p.Fields, FieldChange{Field: field, Value: c.next})
		}
	}
	return p
}

// Creation returns the payload for a new record: every scalar field plus one
// addition per local photo. Unreadable photos are left out.
func (e *Engine) Creation(ctx context.Context, draft vehicle.Vehicle) Payload {
	p := Payload{creation: true}
	for _, f := range vehicle.ScalarFields() {
		p.Fields = append(p.Fields, FieldChange{Field: f, Value: f.Get(draft)})
	}

	var changes []*slotChange
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		if ref := draft.Photo(slot); imagecodec.IsLocal(ref) {
			changes = append(changes, &slotChange{slot: slot, next: ref})
		}
	}
	e.encodeAll(ctx, changes)

	for _, c := range changes {
		if c.encErr != nil {
			e.log.Warn("photo unreadable, skipped", "slot", c.slot, "error", c.encErr)
			continue
		}
		p.Images = append(p.Images, addition(c.slot, c.image))
	}
	return p
}

func (e *Engine) encodeAll(ctx context.Context, changes []*slotChange) {
	var g errgroup.Group
	g.SetLimit(encodeParallelism)
	for _, c := range changes {
		if !imagecodec.IsLocal(c.next) {
			continue
		}
		g.Go(func() error {
			c.image, c.encErr = e.codec.Encode(ctx, c.next, c.slot)
			var readErr *imagecodec.ReadError
			if c.encErr != nil && !errors.As(c.encErr, &readErr) {
				c.encErr = &imagecodec.ReadError{Ref: c.next, Err: c.encErr}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) removal(slot int, ref string, replaced bool) (ImageUpdate, bool) {
	id, ok := imagecodec.ExtractRemoteID(ref)
	if !ok {
		return ImageUpdate{}, false
	}
	path, ok := e.locator.ExtractRemotePath(ref)
	if !ok {
		return ImageUpdate{}, false
	}
	name := vehicle.PhotoField(slot).Name()
	if replaced {
		name += "_old"
	}
	return ImageUpdate{
		Slot:    slot,
		ID:      id,
		Name:    name + ".jpg",
		Mime:    "image/jpeg",
		Removed: true,
		Path:    path,
	}, true
}

func addition(slot int, img imagecodec.Image) ImageUpdate {
	return ImageUpdate{
		Slot:   slot,
		Name:   img.Name,
		Mime:   img.Mime,
		Base64: img.Base64,
	}
}
