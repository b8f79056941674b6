package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/prefs"
	"github.com/five82/patio/internal/vehicle"
)

var errEmptyInput = errors.New("nothing entered")

// parseAssignment reads "field=value" as typed into the edit prompt. Photo
// values that look like filesystem paths become file:// references so the
// diff engine encodes them.
func parseAssignment(text string) (vehicle.Field, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", errEmptyInput
	}
	name, value, ok := strings.Cut(text, "=")
	if !ok {
		return 0, "", fmt.Errorf("expected field=value, got %q", text)
	}
	field, err := vehicle.FieldByName(name)
	if err != nil {
		return 0, "", err
	}
	value = strings.TrimSpace(value)
	if field.IsImage() {
		value = photoRef(value)
	}
	return field, value, nil
}

// parseDraft reads "field=value; field=value; ..." into a new vehicle.
func parseDraft(text string) (vehicle.Vehicle, error) {
	var draft vehicle.Vehicle
	seen := false
	for _, part := range strings.Split(text, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		field, value, err := parseAssignment(part)
		if err != nil {
			return vehicle.Vehicle{}, err
		}
		if err := field.Set(&draft, value); err != nil {
			return vehicle.Vehicle{}, err
		}
		seen = true
	}
	if !seen {
		return vehicle.Vehicle{}, errEmptyInput
	}
	return draft, nil
}

func photoRef(value string) string {
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return imagecodec.FileRef(filepath.Join(home, value[2:]))
		}
		return value
	case strings.HasPrefix(value, "/"):
		return imagecodec.FileRef(value)
	default:
		return value
	}
}

var sortOrder = []string{prefs.SortServer, prefs.SortPrice, prefs.SortModel}

func nextSort(current string) string {
	for i, s := range sortOrder {
		if s == current {
			return sortOrder[(i+1)%len(sortOrder)]
		}
	}
	return sortOrder[0]
}
