package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/patio/internal/prefs"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
)

// row is one vehicle together with the transient state that decorates it.
type row struct {
	vehicle  vehicle.Vehicle
	mutation state.Mutation
	updating bool
	loading  bool
	marked   bool
}

type column struct {
	title string
	width int
	field vehicle.Field
}

var columns = []column{
	{"PLATE", 9, vehicle.FieldPlate},
	{"MODEL", 24, vehicle.FieldModelName},
	{"YEAR", 9, vehicle.FieldModelYear},
	{"COLOR", 10, vehicle.FieldColor},
	{"KM", 9, vehicle.FieldKm},
	{"PRICE", 14, vehicle.FieldPrice},
	{"FUEL", 9, vehicle.FieldFuel},
	{"TYPE", 10, vehicle.FieldType},
}

const (
	pendingMark = "*"
	loadingText = "..."
)

// rows returns the snapshot's vehicles in the preferred order.
func (m Model) rows() []row {
	vehicles := sortVehicles(m.snapshot.Vehicles, m.prefs.Sort)
	out := make([]row, len(vehicles))
	for i, v := range vehicles {
		mut, updating := m.snapshot.Mutations[v.ID]
		out[i] = row{
			vehicle:  v,
			mutation: mut,
			updating: updating && mut.Updating,
			loading:  m.snapshot.Loading[v.ID],
			marked:   m.marked[v.ID],
		}
	}
	return out
}

// sortVehicles returns a sorted copy. The server order is kept for
// SortServer and used as the tie breaker otherwise.
func sortVehicles(list []vehicle.Vehicle, order string) []vehicle.Vehicle {
	out := append([]vehicle.Vehicle(nil), list...)
	switch order {
	case prefs.SortPrice:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case prefs.SortModel:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
		})
	}
	return out
}

// cellText renders one field of a row. Plate-derived fields show a loading
// placeholder while the server looks the plate up, and pending fields carry
// a trailing marker until confirmed.
func cellText(r row, f vehicle.Field) string {
	if r.mutation.PlateRelatedLoading && vehicle.IsPlateRelated(f) {
		return loadingText
	}
	text := formatValue(f, f.Get(r.vehicle))
	if r.updating && r.mutation.Pending(f) {
		text += pendingMark
	}
	return text
}

func formatValue(f vehicle.Field, value any) string {
	switch x := value.(type) {
	case string:
		return x
	case int:
		if x == 0 {
			return ""
		}
		if f == vehicle.FieldKm {
			return groupThousands(strconv.Itoa(x))
		}
		return strconv.Itoa(x)
	case float64:
		if f == vehicle.FieldPrice {
			return formatPrice(x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// formatPrice renders a price in Brazilian reais, e.g. "R$ 45.900,00".
func formatPrice(p float64) string {
	if p <= 0 {
		return ""
	}
	whole := fmt.Sprintf("%.2f", p)
	intPart, frac, _ := strings.Cut(whole, ".")
	return "R$ " + groupThousands(intPart) + "," + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// statusLabel names the row's in-flight operation, if any.
func statusLabel(r row) string {
	switch {
	case r.loading && r.vehicle.IsTemporary():
		return "creating"
	case r.loading:
		return "deleting"
	case r.updating:
		return "saving"
	default:
		return ""
	}
}

func photoCount(v vehicle.Vehicle) int {
	n := 0
	for _, p := range v.Photos {
		if p != "" {
			n++
		}
	}
	return n
}

// fit truncates s to width runes and pads it with spaces.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		if width == 1 {
			return string(runes[:1])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-n)
}

// renderTable renders the vehicle list into height lines.
func (m Model) renderTable(height int) string {
	styles := m.theme.Styles()
	rows := m.rows()

	var b strings.Builder
	header := "   "
	for _, c := range columns {
		header += fit(c.title, c.width) + " "
	}
	header += fit("PICS", 5) + fit("STATUS", 9)
	b.WriteString(styles.MutedText.Bold(true).Render(header))

	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("  No vehicles. Press r to reload or n to add one."))
		return b.String()
	}

	visible := height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
	}

	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(rows[i], i == m.selectedRow, styles))
	}
	return b.String()
}

func (m Model) renderRow(r row, selected bool, styles Styles) string {
	cursor, mark := " ", " "
	if selected {
		cursor = ">"
	}
	if r.marked {
		mark = "x"
	}

	parts := []string{cursor + mark + " "}
	for _, c := range columns {
		text := fit(cellText(r, c.field), c.width) + " "
		style := styles.Text
		switch {
		case r.mutation.PlateRelatedLoading && vehicle.IsPlateRelated(c.field):
			style = styles.FaintText
		case r.updating && r.mutation.Pending(c.field):
			style = styles.WarningText
		}
		parts = append(parts, cell(text, style, selected, styles))
	}

	pics := fmt.Sprintf("%d/%d", photoCount(r.vehicle), vehicle.SlotCount)
	parts = append(parts, cell(fit(pics, 5), styles.MutedText, selected, styles))

	label := statusLabel(r)
	statusStyle := styles.InfoText
	if label == "deleting" {
		statusStyle = styles.DangerText
	}
	parts = append(parts, cell(fit(label, 9), statusStyle, selected, styles))

	return strings.Join(parts, "")
}

func cell(text string, style lipgloss.Style, selected bool, styles Styles) string {
	if selected {
		return styles.Selected.Render(text)
	}
	return style.Render(text)
}
