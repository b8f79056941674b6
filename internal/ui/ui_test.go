package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/prefs"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
)

func TestParseAssignment_PhotoPathsSurviveEncoding(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"car #1.jpg", "car%41.jpg", "car?.jpg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("photo"), 0o600); err != nil {
			t.Fatal(err)
		}

		field, value, err := parseAssignment("foto1=" + path)
		if err != nil {
			t.Fatalf("parseAssignment(%q): %v", name, err)
		}
		if field != vehicle.PhotoField(1) {
			t.Fatalf("field = %v, want foto1", field)
		}
		if _, err := imagecodec.NewCodec(nil, 0).Encode(context.Background(), value, 1); err != nil {
			t.Errorf("encode %q via %q: %v", name, value, err)
		}
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in        string
		wantField vehicle.Field
		wantValue string
		wantErr   bool
	}{
		{in: "preco=45900", wantField: vehicle.FieldPrice, wantValue: "45900"},
		{in: "  placaVeiculo = ABC1D23 ", wantField: vehicle.FieldPlate, wantValue: "ABC1D23"},
		{in: "foto2=/tmp/car.jpg", wantField: vehicle.PhotoField(2), wantValue: "file:///tmp/car.jpg"},
		{in: "foto3=https://cdn.example.com/a.jpg", wantField: vehicle.PhotoField(3), wantValue: "https://cdn.example.com/a.jpg"},
		{in: "foto4=", wantField: vehicle.PhotoField(4), wantValue: ""},
		{in: "observacao=a=b", wantField: vehicle.FieldNote, wantValue: "a=b"},
		{in: "preco", wantErr: true},
		{in: "bogus=1", wantErr: true},
		{in: "   ", wantErr: true},
	}

	for _, tt := range tests {
		field, value, err := parseAssignment(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseAssignment(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAssignment(%q) error: %v", tt.in, err)
			continue
		}
		if field != tt.wantField || value != tt.wantValue {
			t.Errorf("parseAssignment(%q) = %v, %q, want %v, %q", tt.in, field, value, tt.wantField, tt.wantValue)
		}
	}
}

func TestParseAssignment_UnknownField(t *testing.T) {
	_, _, err := parseAssignment("bogus=1")
	if !errors.Is(err, vehicle.ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestParseDraft(t *testing.T) {
	draft, err := parseDraft("placaVeiculo=ABC1D23; preco=45900.5; km=12000;; foto1=/tmp/a.jpg;")
	if err != nil {
		t.Fatalf("parseDraft: %v", err)
	}
	if draft.Plate != "ABC1D23" || draft.Price != 45900.5 || draft.Km != 12000 {
		t.Fatalf("draft = %+v", draft)
	}
	if draft.Photo(1) != "file:///tmp/a.jpg" {
		t.Fatalf("foto1 = %q", draft.Photo(1))
	}

	if _, err := parseDraft("km=lots"); !errors.Is(err, vehicle.ErrInvalidValue) {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
	if _, err := parseDraft(" ; "); !errors.Is(err, errEmptyInput) {
		t.Fatalf("err = %v, want errEmptyInput", err)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, ""},
		{999, "R$ 999,00"},
		{45900, "R$ 45.900,00"},
		{1234567.5, "R$ 1.234.567,50"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.in); got != tt.want {
			t.Errorf("formatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"1":       "1",
		"100":     "100",
		"1000":    "1.000",
		"123456":  "123.456",
		"1234567": "1.234.567",
	}
	for in, want := range tests {
		if got := groupThousands(in); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 5); got != "abc  " {
		t.Fatalf("fit pad = %q", got)
	}
	if got := fit("abcdef", 4); got != "abc…" {
		t.Fatalf("fit truncate = %q", got)
	}
	if got := fit("abc", 0); got != "" {
		t.Fatalf("fit zero = %q", got)
	}
}

func TestCellText_Markers(t *testing.T) {
	r := row{
		vehicle: vehicle.Vehicle{ID: "v1", Plate: "ABC1D23", ModelName: "Onix", Price: 1000},
		mutation: state.Mutation{
			Updating:            true,
			Fields:              []vehicle.Field{vehicle.FieldPlate},
			PlateRelatedLoading: true,
		},
		updating: true,
	}

	if got := cellText(r, vehicle.FieldPlate); got != "ABC1D23"+pendingMark {
		t.Fatalf("plate cell = %q", got)
	}
	if got := cellText(r, vehicle.FieldModelName); got != loadingText {
		t.Fatalf("model cell = %q, want loading placeholder", got)
	}
	if got := cellText(r, vehicle.FieldPrice); got != "R$ 1.000,00" {
		t.Fatalf("price cell = %q", got)
	}

	r.updating = false
	r.mutation = state.Mutation{}
	if got := cellText(r, vehicle.FieldModelName); got != "Onix" {
		t.Fatalf("model cell after confirm = %q", got)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		r    row
		want string
	}{
		{row{}, ""},
		{row{updating: true}, "saving"},
		{row{loading: true}, "deleting"},
		{row{loading: true, vehicle: vehicle.Vehicle{ID: vehicle.TempIDPrefix + "x"}}, "creating"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.r); got != tt.want {
			t.Errorf("statusLabel(%+v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestSortVehicles(t *testing.T) {
	list := []vehicle.Vehicle{
		{ID: "a", ModelName: "Palio", Price: 30000},
		{ID: "b", ModelName: "civic", Price: 90000},
		{ID: "c", ModelName: "Argo", Price: 30000},
	}

	ids := func(vs []vehicle.Vehicle) string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = v.ID
		}
		return strings.Join(out, ",")
	}

	if got := ids(sortVehicles(list, prefs.SortServer)); got != "a,b,c" {
		t.Fatalf("server order = %s", got)
	}
	if got := ids(sortVehicles(list, prefs.SortPrice)); got != "a,c,b" {
		t.Fatalf("price order = %s", got)
	}
	if got := ids(sortVehicles(list, prefs.SortModel)); got != "c,b,a" {
		t.Fatalf("model order = %s", got)
	}
	if ids(list) != "a,b,c" {
		t.Fatal("sortVehicles modified its input")
	}
}

func TestNextSort(t *testing.T) {
	if got := nextSort(prefs.SortServer); got != prefs.SortPrice {
		t.Fatalf("nextSort(server) = %q", got)
	}
	if got := nextSort(prefs.SortModel); got != prefs.SortServer {
		t.Fatalf("nextSort(model) = %q", got)
	}
	if got := nextSort("bogus"); got != prefs.SortServer {
		t.Fatalf("nextSort(bogus) = %q", got)
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 || names[0] != "Garage" || names[1] != "Daylight" {
		t.Fatalf("ThemeNames() = %v, want [Garage Daylight]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Garage"); got != "Daylight" {
		t.Fatalf("NextTheme(Garage) = %q, want Daylight", got)
	}
	if got := NextTheme("Daylight"); got != "Garage" {
		t.Fatalf("NextTheme(Daylight) = %q, want Garage", got)
	}
	if got := NextTheme("unknown"); got != "Garage" {
		t.Fatalf("NextTheme(unknown) = %q, want Garage", got)
	}
	if got := GetTheme("unknown").Name; got != "Garage" {
		t.Fatalf("GetTheme(unknown) = %q, want Garage", got)
	}
}

type fakeEditor struct {
	editID    string
	editField vehicle.Field
	editValue any
	created   *vehicle.Vehicle
	err       error
}

func (f *fakeEditor) BeginFieldEdit(_ context.Context, id string, field vehicle.Field, value any) (vehicle.Vehicle, error) {
	f.editID, f.editField, f.editValue = id, field, value
	return vehicle.Vehicle{ID: id, Plate: "ABC1D23"}, f.err
}

func (f *fakeEditor) Create(_ context.Context, draft vehicle.Vehicle) (vehicle.Vehicle, error) {
	f.created = &draft
	draft.ID = "srv-1"
	return draft, f.err
}

type fakeDeleter struct {
	single []string
	bulk   [][]string
}

func (f *fakeDeleter) Delete(_ context.Context, id string) error {
	f.single = append(f.single, id)
	return nil
}

func (f *fakeDeleter) BulkDelete(_ context.Context, ids []string) (int, error) {
	f.bulk = append(f.bulk, ids)
	return len(ids), nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, editor Editor, deleter Deleter, vehicles ...vehicle.Vehicle) Model {
	t.Helper()
	store := &state.Store{}
	store.ReplaceAll(vehicles)
	m := New(Options{
		Store:     store,
		Editor:    editor,
		Deleter:   deleter,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	updated, _ = updated.Update(snapshotMsg(store.Snapshot()))
	return updated.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestModel_EditPromptSendsAssignment(t *testing.T) {
	editor := &fakeEditor{}
	m := newTestModel(t, editor, nil, vehicle.Vehicle{ID: "v1", Plate: "ABC1D23"})

	m, _ = press(t, m, runes("e"))
	if m.mode != modeEdit || m.editTarget != "v1" {
		t.Fatalf("mode = %v target = %q, want edit of v1", m.mode, m.editTarget)
	}
	m.input.SetValue("preco=45900")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeBrowse {
		t.Fatalf("prompt still open")
	}
	if cmd == nil {
		t.Fatal("expected edit command")
	}
	msg := cmd()
	action, ok := msg.(actionMsg)
	if !ok || action.err != nil {
		t.Fatalf("msg = %#v", msg)
	}
	if editor.editID != "v1" || editor.editField != vehicle.FieldPrice || editor.editValue != "45900" {
		t.Fatalf("editor got %q %v %v", editor.editID, editor.editField, editor.editValue)
	}
}

func TestModel_EditPromptRejectsBadInput(t *testing.T) {
	editor := &fakeEditor{}
	m := newTestModel(t, editor, nil, vehicle.Vehicle{ID: "v1"})

	m, _ = press(t, m, runes("e"))
	m.input.SetValue("nonsense")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for invalid input")
	}
	if !m.statusErr || m.status == "" {
		t.Fatalf("status = %q err=%v", m.status, m.statusErr)
	}
	if editor.editID != "" {
		t.Fatal("editor should not be called")
	}
}

func TestModel_CreatePrompt(t *testing.T) {
	editor := &fakeEditor{}
	m := newTestModel(t, editor, nil)

	m, _ = press(t, m, runes("n"))
	if m.mode != modeCreate {
		t.Fatalf("mode = %v, want create", m.mode)
	}
	m.input.SetValue("placaVeiculo=XYZ9A87; preco=1000")
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected create command")
	}
	cmd()
	if editor.created == nil || editor.created.Plate != "XYZ9A87" || editor.created.Price != 1000 {
		t.Fatalf("created = %+v", editor.created)
	}
}

func TestModel_DeleteRequiresConfirmation(t *testing.T) {
	deleter := &fakeDeleter{}
	m := newTestModel(t, nil, deleter, vehicle.Vehicle{ID: "v1"}, vehicle.Vehicle{ID: "v2"})

	m, _ = press(t, m, runes("j"))
	m, cmd := press(t, m, runes("d"))
	if cmd != nil || m.mode != modeConfirmDelete {
		t.Fatalf("expected confirmation, mode = %v", m.mode)
	}

	m, cmd = press(t, m, runes("n"))
	if cmd != nil || m.mode != modeBrowse {
		t.Fatal("rejecting should close the confirmation without deleting")
	}

	m, _ = press(t, m, runes("d"))
	_, cmd = press(t, m, runes("y"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	cmd()
	if len(deleter.single) != 1 || deleter.single[0] != "v2" {
		t.Fatalf("deleted = %v, want [v2]", deleter.single)
	}
}

func TestModel_BulkDeleteMarked(t *testing.T) {
	deleter := &fakeDeleter{}
	m := newTestModel(t, nil, deleter,
		vehicle.Vehicle{ID: "v1"}, vehicle.Vehicle{ID: "v2"}, vehicle.Vehicle{ID: "v3"})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = press(t, m, runes("G"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if len(m.marked) != 2 {
		t.Fatalf("marked = %v", m.marked)
	}

	m, _ = press(t, m, runes("x"))
	if m.mode != modeConfirmDelete {
		t.Fatal("bulk delete should ask for confirmation by default")
	}
	m, cmd := press(t, m, runes("y"))
	if cmd == nil {
		t.Fatal("expected bulk delete command")
	}
	msg := cmd().(actionMsg)
	if msg.text != "Deleted 2 vehicles" {
		t.Fatalf("status = %q", msg.text)
	}
	if len(deleter.bulk) != 1 || strings.Join(deleter.bulk[0], ",") != "v1,v3" {
		t.Fatalf("bulk = %v", deleter.bulk)
	}
	if len(m.marked) != 0 {
		t.Fatalf("marks not cleared: %v", m.marked)
	}
}

func TestModel_ActionErrorShowsStatus(t *testing.T) {
	m := newTestModel(t, nil, nil)
	updated, _ := m.Update(actionMsg{err: state.ErrBusy})
	m = updated.(Model)
	if !m.statusErr || !strings.Contains(m.status, "Still saving") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModel_SnapshotPrunesMarks(t *testing.T) {
	m := newTestModel(t, nil, nil, vehicle.Vehicle{ID: "v1"}, vehicle.Vehicle{ID: "v2"})
	m.marked["v2"] = true
	m.selectedRow = 1

	store := &state.Store{}
	store.ReplaceAll([]vehicle.Vehicle{{ID: "v1"}})
	updated, _ := m.Update(snapshotMsg(store.Snapshot()))
	m = updated.(Model)

	if m.marked["v2"] {
		t.Fatal("mark for removed vehicle should be dropped")
	}
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestModel_ViewRendersRows(t *testing.T) {
	m := newTestModel(t, nil, nil, vehicle.Vehicle{ID: "v1", Plate: "ABC1D23", ModelName: "Onix"})
	out := m.View()
	if !strings.Contains(out, "ABC1D23") || !strings.Contains(out, "Onix") {
		t.Fatalf("view missing vehicle:\n%s", out)
	}
	if !strings.Contains(out, "1 vehicles") {
		t.Fatalf("view missing header count:\n%s", out)
	}
}
