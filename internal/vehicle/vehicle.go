package vehicle

import "strings"

const (
	// SlotCount is the number of ordered photo slots on a record.
	SlotCount = 12
	// MandatorySlots is how many leading slots must hold a photo at creation.
	MandatorySlots = 3

	// TempIDPrefix marks client-generated ids for records the server has not
	// confirmed yet.
	TempIDPrefix = "temp-"
)

// Vehicle is a plain value describing one listing. Transient UI state such as
// pending edits lives elsewhere (see state.Mutation), never on the record.
type Vehicle struct {
	ID         string
	ModelName  string
	Plate      string
	Km         int
	Price      float64
	Type       string
	YearBuilt  int
	ModelYear  int
	Fuel       string
	Color      string
	Note       string
	Interested int
	Photos     [SlotCount]string
}

// Photo returns the reference held by the 1-based slot, or "" when the slot
// is out of range.
func (v Vehicle) Photo(slot int) string {
	if slot < 1 || slot > SlotCount {
		return ""
	}
	return v.Photos[slot-1]
}

// SetPhoto stores ref in the 1-based slot. Out-of-range slots are ignored.
func (v *Vehicle) SetPhoto(slot int, ref string) {
	if slot < 1 || slot > SlotCount {
		return
	}
	v.Photos[slot-1] = ref
}

// IsTemporary reports whether the id was generated locally for an
// optimistic insert.
func (v Vehicle) IsTemporary() bool {
	return strings.HasPrefix(v.ID, TempIDPrefix)
}

// DisplayName is the label used in lists and status messages.
func (v Vehicle) DisplayName() string {
	if name := strings.TrimSpace(v.ModelName); name != "" {
		return name
	}
	if plate := strings.TrimSpace(v.Plate); plate != "" {
		return plate
	}
	return v.ID
}

// MissingRequired lists the fields that block creation of v: plate, a
// positive price, type, fuel, and the mandatory photo slots.
func (v Vehicle) MissingRequired() []Field {
	var missing []Field
	if strings.TrimSpace(v.Plate) == "" {
		missing = append(missing, FieldPlate)
	}
	if v.Price <= 0 {
		missing = append(missing, FieldPrice)
	}
	if strings.TrimSpace(v.Type) == "" {
		missing = append(missing, FieldType)
	}
	if strings.TrimSpace(v.Fuel) == "" {
		missing = append(missing, FieldFuel)
	}
	for slot := 1; slot <= MandatorySlots; slot++ {
		if strings.TrimSpace(v.Photo(slot)) == "" {
			missing = append(missing, PhotoField(slot))
		}
	}
	return missing
}
