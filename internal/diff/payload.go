package diff

import (
	"encoding/json"

	"github.com/five82/patio/internal/vehicle"
)

// FieldChange is one scalar assignment sent to the server. Photo slots appear
// here only when their new value is sent as a plain reference.
type FieldChange struct {
	Field vehicle.Field
	Value any
}

// ImageUpdate is either an addition (Base64 set, Removed false) or a removal
// of an uploaded photo (ID and Path set, Base64 empty).
type ImageUpdate struct {
	Slot    int    `json:"-"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Base64  string `json:"base64"`
	Removed bool   `json:"removed"`
	Path    string `json:"path,omitempty"`
}

// Payload is the minimal update request for one vehicle.
type Payload struct {
	ID          string
	VehicleName string
	Fields      []FieldChange
	Images      []ImageUpdate

	creation bool
}

// Empty reports whether there is nothing to send.
func (p Payload) Empty() bool {
	return len(p.Fields) == 0 && len(p.Images) == 0
}

// Has reports whether f is assigned in the scalar part of the payload.
func (p Payload) Has(f vehicle.Field) bool {
	for _, c := range p.Fields {
		if c.Field == f {
			return true
		}
	}
	return false
}

// Removals returns the removal entries in payload order.
func (p Payload) Removals() []ImageUpdate {
	var out []ImageUpdate
	for _, img := range p.Images {
		if img.Removed {
			out = append(out, img)
		}
	}
	return out
}

// MarshalJSON flattens the payload into the webhook body: id, vehicleName,
// one key per changed field and an images array when photos changed.
func (p Payload) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(p.Fields)+3)
	if p.ID != "" {
		body["id"] = p.ID
	}
	if p.VehicleName != "" || !p.creation {
		body["vehicleName"] = p.VehicleName
	}
	for _, c := range p.Fields {
		body[c.Field.Name()] = c.Value
	}
	if len(p.Images) > 0 || p.creation {
		images := p.Images
		if images == nil {
			images = []ImageUpdate{}
		}
		body["images"] = images
	}
	return json.Marshal(body)
}
