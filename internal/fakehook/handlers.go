package fakehook

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/five82/patio/internal/vehicle"
)

const maxBodyBytes = 64 << 20

// responseKeys are the snake_case names the webhook answers with.
var responseKeys = map[vehicle.Field]string{
	vehicle.FieldModelName:  "nome_modelo",
	vehicle.FieldPlate:      "placa",
	vehicle.FieldKm:         "km",
	vehicle.FieldPrice:      "preco",
	vehicle.FieldType:       "tipo",
	vehicle.FieldYearBuilt:  "ano_fabricacao",
	vehicle.FieldModelYear:  "ano_modelo",
	vehicle.FieldFuel:       "combustivel",
	vehicle.FieldColor:      "cor",
	vehicle.FieldNote:       "observacao",
	vehicle.FieldInterested: "interessados",
}

type imageUpdate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Base64  string `json:"base64"`
	Removed bool   `json:"removed"`
	Path    string `json:"path"`
}

type vehicleRequest struct {
	id     string
	fields map[vehicle.Field]any
	images []imageUpdate
}

type deleteRequest struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
}

func (s *Server) listVehicles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, len(s.vehicles))
	for i, v := range s.vehicles {
		out[i] = encodeVehicle(v)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createVehicle(w http.ResponseWriter, r *http.Request) {
	req, err := decodeVehicleRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var v vehicle.Vehicle
	if err := applyFields(&v, req.fields); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(v.Plate) == "" {
		writeError(w, http.StatusBadRequest, "placaVeiculo is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = s.newID()
	if v.ModelName == "" {
		if info, ok := s.lookupPlate(v.Plate); ok {
			fillFromPlate(&v, info)
		}
	}
	if _, err := s.applyImages(&v, req.images); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.vehicles = append([]vehicle.Vehicle{v}, s.vehicles...)
	s.log.Info("vehicle created", "vehicle_id", v.ID, "plate", v.Plate)

	writeJSON(w, http.StatusOK, []map[string]any{{
		"success": true,
		"vehicle": encodeVehicle(v),
	}})
}

func (s *Server) updateVehicle(w http.ResponseWriter, r *http.Request) {
	req, err := decodeVehicleRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(req.id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	v := s.vehicles[i]
	oldPlate := v.Plate

	if err := applyFields(&v, req.fields); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	changed := make([]vehicle.Field, 0, len(req.fields))
	for f := range req.fields {
		changed = append(changed, f)
	}
	if v.Plate != oldPlate {
		if info, ok := s.lookupPlate(v.Plate); ok {
			fillFromPlate(&v, info)
			changed = append(changed, vehicle.PlateRelatedFields()...)
		}
	}
	slots, err := s.applyImages(&v, req.images)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, slot := range slots {
		changed = append(changed, vehicle.PhotoField(slot))
	}

	s.vehicles[i] = v
	s.log.Info("vehicle updated", "vehicle_id", v.ID, "fields", len(changed))

	writeJSON(w, http.StatusOK, encodePartial(v, changed))
}

func (s *Server) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(req.ID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	s.vehicles = append(s.vehicles[:i:i], s.vehicles[i+1:]...)
	s.log.Info("vehicle deleted", "vehicle_id", req.ID, "images", len(req.Images))

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// bulkDeleteVehicles removes every listed vehicle or none of them.
func (s *Server) bulkDeleteVehicles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vehicles []deleteRequest `json:"vehicles"`
	}
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Vehicles) == 0 {
		writeError(w, http.StatusBadRequest, "vehicles is empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(req.Vehicles))
	for _, d := range req.Vehicles {
		if s.indexLocked(d.ID) < 0 {
			writeError(w, http.StatusNotFound, "vehicle not found: "+d.ID)
			return
		}
		drop[d.ID] = struct{}{}
	}
	kept := s.vehicles[:0:0]
	for _, v := range s.vehicles {
		if _, ok := drop[v.ID]; !ok {
			kept = append(kept, v)
		}
	}
	s.vehicles = kept
	s.log.Info("vehicles bulk deleted", "count", len(drop))

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": len(drop)})
}

// applyImages runs removals before additions so a replacement can clear and
// refill the same slot. It returns the touched slots in order.
func (s *Server) applyImages(v *vehicle.Vehicle, images []imageUpdate) ([]int, error) {
	var touched []int
	for _, img := range images {
		if !img.Removed {
			continue
		}
		slot := slotByPath(*v, img.Path)
		if slot == 0 {
			slot = slotFromName(img.Name)
		}
		if slot == 0 {
			continue
		}
		v.SetPhoto(slot, "")
		touched = appendSlot(touched, slot)
	}
	for _, img := range images {
		if img.Removed {
			continue
		}
		slot := slotFromName(img.Name)
		if slot == 0 {
			return nil, fmt.Errorf("image name %q names no photo slot", img.Name)
		}
		if _, err := base64.StdEncoding.DecodeString(img.Base64); err != nil || img.Base64 == "" {
			return nil, fmt.Errorf("image %s: invalid base64 content", img.Name)
		}
		v.SetPhoto(slot, s.prefix+"/"+objectName(v.DisplayName(), img.Mime, s.newID()))
		touched = appendSlot(touched, slot)
	}
	return touched, nil
}

func appendSlot(slots []int, slot int) []int {
	for _, s := range slots {
		if s == slot {
			return slots
		}
	}
	return append(slots, slot)
}

func slotByPath(v vehicle.Vehicle, path string) int {
	if path == "" {
		return 0
	}
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		if p := v.Photo(slot); p != "" && (p == path || strings.HasSuffix(p, "/"+path)) {
			return slot
		}
	}
	return 0
}

// slotFromName reads the slot from names like "foto3.jpg" or "foto3_old.jpg".
func slotFromName(name string) int {
	rest, ok := strings.CutPrefix(name, "foto")
	if !ok {
		return 0
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	slot, err := strconv.Atoi(rest[:end])
	if err != nil || slot < 1 || slot > vehicle.SlotCount {
		return 0
	}
	return slot
}

// objectName builds a storage object name such as
// "JEEP-COMPASS-be696112-ec99-45e5-b71c-bfba4684f17c.jpeg".
func objectName(model, mime, id string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToUpper(model) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		base = "VEHICLE"
	}
	ext := ".jpeg"
	switch mime {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return base + "-" + id + ext
}

func fillFromPlate(v *vehicle.Vehicle, info PlateInfo) {
	v.ModelName = info.ModelName
	v.YearBuilt = info.YearBuilt
	v.ModelYear = info.ModelYear
	v.Color = info.Color
}

func applyFields(v *vehicle.Vehicle, fields map[vehicle.Field]any) error {
	for f, value := range fields {
		if err := f.Set(v, value); err != nil {
			return err
		}
	}
	return nil
}

// Wire encoding

func decodeBody(r io.Reader, dest any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// decodeVehicleRequest reads a create or update body: id, vehicleName, one
// key per field, and an images array.
func decodeVehicleRequest(r io.Reader) (vehicleRequest, error) {
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		return vehicleRequest{}, err
	}
	req := vehicleRequest{fields: make(map[vehicle.Field]any)}
	for key, value := range raw {
		switch key {
		case "id":
			if err := json.Unmarshal(value, &req.id); err != nil {
				return vehicleRequest{}, errors.New("id must be a string")
			}
		case "vehicleName":
		case "images":
			if err := json.Unmarshal(value, &req.images); err != nil {
				return vehicleRequest{}, fmt.Errorf("images: %w", err)
			}
		default:
			f, err := vehicle.FieldByName(key)
			if err != nil {
				return vehicleRequest{}, err
			}
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return vehicleRequest{}, fmt.Errorf("%s: %w", key, err)
			}
			req.fields[f] = v
		}
	}
	return req, nil
}

// encodeVehicle renders a full record the way the list endpoint does.
func encodeVehicle(v vehicle.Vehicle) map[string]any {
	obj := map[string]any{"vehicle_id": v.ID}
	for f, key := range responseKeys {
		obj[key] = wireValue(f, f.Get(v))
	}
	images := []map[string]any{}
	for slot := 1; slot <= vehicle.SlotCount; slot++ {
		name := vehicle.PhotoField(slot).Name()
		p := v.Photo(slot)
		if p == "" {
			obj[name] = nil
			continue
		}
		ref := map[string]any{"path": p, "idx": slot}
		images = append(images, ref)
		obj[name] = ref
	}
	obj["images"] = images
	return obj
}

// encodePartial renders only the changed fields, as the update endpoint does.
func encodePartial(v vehicle.Vehicle, changed []vehicle.Field) map[string]any {
	obj := map[string]any{"vehicle_id": v.ID}
	for _, f := range changed {
		if f.IsImage() {
			if p := v.Photo(f.Slot()); p != "" {
				obj[f.Name()] = map[string]any{"path": p, "idx": f.Slot()}
			} else {
				obj[f.Name()] = nil
			}
			continue
		}
		if key, ok := responseKeys[f]; ok {
			obj[key] = wireValue(f, f.Get(v))
		}
	}
	return obj
}

// wireValue sends prices as decimal strings, like the production webhook.
func wireValue(f vehicle.Field, value any) any {
	if f == vehicle.FieldPrice {
		if p, ok := value.(float64); ok {
			return strconv.FormatFloat(p, 'f', 2, 64)
		}
	}
	return value
}
