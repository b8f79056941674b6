package webhook

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/vehicle"
)

// Response keys. The webhook answers in snake_case while requests use the
// form's camelCase names, so both spellings are accepted where they differ.
var (
	keysID         = []string{"vehicle_id", "id"}
	keysModelName  = []string{"nome_modelo", "nomeModelo"}
	keysPlate      = []string{"placa", "placaVeiculo"}
	keysKm         = []string{"km"}
	keysPrice      = []string{"preco"}
	keysType       = []string{"tipo", "tipo_veiculo", "tipoVeiculo"}
	keysYearBuilt  = []string{"ano_fabricacao", "anoFabricacao"}
	keysModelYear  = []string{"ano_modelo", "anoModelo"}
	keysFuel       = []string{"combustivel"}
	keysColor      = []string{"cor"}
	keysNote       = []string{"observacao", "obs"}
	keysInterested = []string{"interessados"}
)

var fieldKeys = []struct {
	field vehicle.Field
	keys  []string
}{
	{vehicle.FieldModelName, keysModelName},
	{vehicle.FieldPlate, keysPlate},
	{vehicle.FieldKm, keysKm},
	{vehicle.FieldPrice, keysPrice},
	{vehicle.FieldType, keysType},
	{vehicle.FieldYearBuilt, keysYearBuilt},
	{vehicle.FieldModelYear, keysModelYear},
	{vehicle.FieldFuel, keysFuel},
	{vehicle.FieldColor, keysColor},
	{vehicle.FieldNote, keysNote},
	{vehicle.FieldInterested, keysInterested},
}

// listItems accepts a bare array or {"data": [...]}.
func listItems(body any) ([]map[string]any, bool) {
	var raw []any
	switch x := body.(type) {
	case []any:
		raw = x
	case map[string]any:
		data, ok := x["data"].([]any)
		if !ok {
			return nil, false
		}
		raw = data
	case nil:
		return nil, true
	default:
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, true
}

// unwrapVehicle finds the vehicle object in a create or update response:
// [{vehicle, success}], {vehicle_id, ...}, {success, vehicle} or {vehicle}.
func unwrapVehicle(body any) map[string]any {
	if arr, ok := body.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		body = arr[0]
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := obj["vehicle_id"]; ok {
		return obj
	}
	if inner, ok := obj["vehicle"].(map[string]any); ok {
		return inner
	}
	return obj
}

// decodeVehicle builds a full record. Missing values decode as zero.
func decodeVehicle(obj map[string]any, loc imagecodec.Locator) vehicle.Vehicle {
	var v vehicle.Vehicle
	v.ID = textOf(first(obj, keysID))
	for _, fk := range fieldKeys {
		if raw, ok := lookup(obj, fk.keys); ok {
			setLoose(&v, fk.field, raw)
		}
	}

	if images, ok := obj["images"].([]any); ok {
		for i, img := range images {
			if i >= vehicle.SlotCount {
				break
			}
			v.SetPhoto(i+1, listPhotoRef(img, loc))
		}
	}
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		if raw, ok := obj[vehicle.PhotoField(slot).Name()]; ok {
			v.SetPhoto(slot, photoRef(raw, loc))
		}
	}
	return v
}

// decodePartial keeps only the fields present in obj. The id is ignored: an
// update always applies to the vehicle it was sent for.
func decodePartial(obj map[string]any, loc imagecodec.Locator) vehicle.Partial {
	p := vehicle.Partial{}
	for _, fk := range fieldKeys {
		raw, ok := lookup(obj, fk.keys)
		if !ok {
			continue
		}
		var scratch vehicle.Vehicle
		setLoose(&scratch, fk.field, raw)
		p[fk.field] = fk.field.Get(scratch)
	}

	byIdx := map[int]any{}
	if images, ok := obj["images"].([]any); ok {
		for _, img := range images {
			m, ok := img.(map[string]any)
			if !ok {
				continue
			}
			if idx, ok := intOf(m["idx"]); ok {
				byIdx[idx] = m
			}
		}
	}
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		raw, ok := obj[vehicle.PhotoField(slot).Name()]
		if !ok || raw == nil {
			raw, ok = byIdx[slot]
		}
		if !ok || raw == nil {
			continue
		}
		if ref := photoRef(raw, loc); ref != "" {
			p[vehicle.PhotoField(slot)] = ref
		}
	}
	return p
}

// setLoose assigns raw to f, coercing numbers and numeric strings. Values
// that cannot be coerced leave the zero value.
func setLoose(v *vehicle.Vehicle, f vehicle.Field, raw any) {
	switch f.Kind() {
	case vehicle.KindInt:
		n, _ := intOf(raw)
		_ = f.Set(v, n)
	case vehicle.KindNumber:
		n, _ := numberOf(raw)
		_ = f.Set(v, n)
	default:
		_ = f.Set(v, textOf(raw))
	}
}

func listPhotoRef(raw any, loc imagecodec.Locator) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return photoRef(raw, loc)
	}
	for _, key := range []string{"path", "url", "base64"} {
		if s := textOf(m[key]); s != "" {
			if key == "path" {
				return loc.URLFor(s)
			}
			return s
		}
	}
	return ""
}

// photoRef decodes {path, idx}, a plain string, or null.
func photoRef(raw any, loc imagecodec.Locator) string {
	switch x := raw.(type) {
	case map[string]any:
		return loc.URLFor(textOf(x["path"]))
	case string:
		return x
	default:
		return ""
	}
}

func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

func first(obj map[string]any, keys []string) any {
	raw, _ := lookup(obj, keys)
	return raw
}

func textOf(raw any) string {
	switch x := raw.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func numberOf(raw any) (float64, bool) {
	switch x := raw.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func intOf(raw any) (int, bool) {
	f, ok := numberOf(raw)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
