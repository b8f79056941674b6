package vehicle

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownField is returned for a field name or value outside the set.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a value cannot be converted to the
	// field's kind.
	ErrInvalidValue = errors.New("invalid field value")
)

// Field identifies one editable attribute of a Vehicle. The set is closed:
// every value between FieldModelName and the last photo slot is valid.
type Field int

const (
	FieldModelName Field = iota + 1
	FieldPlate
	FieldKm
	FieldPrice
	FieldType
	FieldYearBuilt
	FieldModelYear
	FieldFuel
	FieldColor
	FieldNote
	FieldInterested
	FieldPhoto1

	lastField = FieldPhoto1 + SlotCount - 1
)

// Kind describes the Go type a field holds.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindNumber
	KindImage
)

type descriptor struct {
	name string
	kind Kind
	get  func(Vehicle) any
	set  func(*Vehicle, any) error
}

var scalarDescriptors = map[Field]descriptor{
	FieldModelName:  textField("nomeModelo", func(v *Vehicle) *string { return &v.ModelName }),
	FieldPlate:      textField("placaVeiculo", func(v *Vehicle) *string { return &v.Plate }),
	FieldKm:         intField("km", func(v *Vehicle) *int { return &v.Km }),
	FieldPrice:      numberField("preco", func(v *Vehicle) *float64 { return &v.Price }),
	FieldType:       textField("tipoVeiculo", func(v *Vehicle) *string { return &v.Type }),
	FieldYearBuilt:  intField("anoFabricacao", func(v *Vehicle) *int { return &v.YearBuilt }),
	FieldModelYear:  intField("anoModelo", func(v *Vehicle) *int { return &v.ModelYear }),
	FieldFuel:       textField("combustivel", func(v *Vehicle) *string { return &v.Fuel }),
	FieldColor:      textField("cor", func(v *Vehicle) *string { return &v.Color }),
	FieldNote:       textField("observacao", func(v *Vehicle) *string { return &v.Note }),
	FieldInterested: intField("interessados", func(v *Vehicle) *int { return &v.Interested }),
}

// Scalar fields in the order the diff engine compares them.
var scalarOrder = [...]Field{
	FieldPlate, FieldKm, FieldPrice, FieldType, FieldFuel, FieldNote,
	FieldModelName, FieldYearBuilt, FieldModelYear, FieldColor, FieldInterested,
}

// Fields with a dedicated input on the edit form.
var editable = [...]Field{FieldPlate, FieldKm, FieldPrice, FieldFuel, FieldType, FieldNote}

// Fields the server refills after a plate lookup.
var plateRelated = [...]Field{FieldModelName, FieldYearBuilt, FieldModelYear, FieldColor}

// PhotoField returns the field for a 1-based photo slot.
func PhotoField(slot int) Field {
	return FieldPhoto1 + Field(slot-1)
}

// Valid reports whether f belongs to the closed field set.
func (f Field) Valid() bool {
	return f >= FieldModelName && f <= lastField
}

// IsImage reports whether f is one of the photo slots.
func (f Field) IsImage() bool {
	return f >= FieldPhoto1 && f <= lastField
}

// Slot returns the 1-based photo slot for image fields and 0 otherwise.
func (f Field) Slot() int {
	if !f.IsImage() {
		return 0
	}
	return int(f-FieldPhoto1) + 1
}

// Name is the wire name of the field, e.g. "preco" or "foto4".
func (f Field) Name() string {
	if f.IsImage() {
		return "foto" + strconv.Itoa(f.Slot())
	}
	if d, ok := scalarDescriptors[f]; ok {
		return d.name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

func (f Field) String() string { return f.Name() }

// Kind reports the value type held by the field.
func (f Field) Kind() Kind {
	if f.IsImage() {
		return KindImage
	}
	return scalarDescriptors[f].kind
}

// Get returns the field's current value on v: string, int, or float64.
func (f Field) Get(v Vehicle) any {
	if f.IsImage() {
		return v.Photo(f.Slot())
	}
	d, ok := scalarDescriptors[f]
	if !ok {
		return nil
	}
	return d.get(v)
}

// Set assigns value to the field on v. Strings are parsed for numeric fields
// so values typed into a form can be passed through unchanged.
func (f Field) Set(v *Vehicle, value any) error {
	if f.IsImage() {
		s, err := toText(value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
		v.SetPhoto(f.Slot(), s)
		return nil
	}
	d, ok := scalarDescriptors[f]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	if err := d.set(v, value); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}
	return nil
}

// FieldByName resolves a wire name such as "placaVeiculo" or "foto7".
func FieldByName(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	if rest, ok := strings.CutPrefix(trimmed, "foto"); ok {
		slot, err := strconv.Atoi(rest)
		if err == nil && slot >= 1 && slot <= SlotCount {
			return PhotoField(slot), nil
		}
	}
	for f, d := range scalarDescriptors {
		if d.name == trimmed {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ScalarFields lists every non-image field in diff order.
func ScalarFields() []Field { return append([]Field(nil), scalarOrder[:]...) }

// EditableFields lists the fields with a dedicated form input.
func EditableFields() []Field { return append([]Field(nil), editable[:]...) }

// PlateRelatedFields lists the fields refilled by the server's plate lookup.
func PlateRelatedFields() []Field { return append([]Field(nil), plateRelated[:]...) }

// ImageFields lists the photo slots in slot order.
func ImageFields() []Field {
	out := make([]Field, SlotCount)
	for i := range out {
		out[i] = PhotoField(i + 1)
	}
	return out
}

// IsEditable reports whether f has a form input or is a photo slot.
func IsEditable(f Field) bool {
	return f.IsImage() || contains(editable[:], f)
}

// IsPlateRelated reports whether f is refilled by the plate lookup.
func IsPlateRelated(f Field) bool {
	return contains(plateRelated[:], f)
}

// Partial is a sparse server response: only the fields it carries changed.
// Absent fields mean "unchanged", never "cleared".
type Partial map[Field]any

// Fields returns the carried fields in declaration order.
func (p Partial) Fields() []Field {
	out := make([]Field, 0, len(p))
	for f := range p {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply overlays p onto v. Values that do not fit their field are skipped.
func (p Partial) Apply(v Vehicle) Vehicle {
	for _, f := range p.Fields() {
		_ = f.Set(&v, p[f])
	}
	return v
}

func contains(fields []Field, f Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}
	return false
}

func textField(name string, ptr func(*Vehicle) *string) descriptor {
	return descriptor{
		name: name,
		kind: KindText,
		get:  func(v Vehicle) any { return *ptr(&v) },
		set: func(v *Vehicle, value any) error {
			s, err := toText(value)
			if err != nil {
				return err
			}
			*ptr(v) = s
			return nil
		},
	}
}

func intField(name string, ptr func(*Vehicle) *int) descriptor {
	return descriptor{
		name: name,
		kind: KindInt,
		get:  func(v Vehicle) any { return *ptr(&v) },
		set: func(v *Vehicle, value any) error {
			n, err := toInt(value)
			if err != nil {
				return err
			}
			*ptr(v) = n
			return nil
		},
	}
}

func numberField(name string, ptr func(*Vehicle) *float64) descriptor {
	return descriptor{
		name: name,
		kind: KindNumber,
		get:  func(v Vehicle) any { return *ptr(&v) },
		set: func(v *Vehicle, value any) error {
			n, err := toNumber(value)
			if err != nil {
				return err
			}
			*ptr(v) = n
			return nil
		},
	}
}

func toText(value any) (string, error) {
	switch x := value.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("%w: want text, got %T", ErrInvalidValue, value)
	}
}

func toInt(value any) (int, error) {
	switch x := value.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidValue, x)
		}
		return int(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrInvalidValue, value)
	}
}

func toNumber(value any) (float64, error) {
	switch x := value.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: want number, got %T", ErrInvalidValue, value)
	}
}
