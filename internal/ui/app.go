package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/logtail"
	"github.com/five82/patio/internal/prefs"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
)

// View represents the current active view.
type View int

const (
	ViewList View = iota
	ViewLogs
)

// inputMode selects what keystrokes on the list view are routed to.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeEdit
	modeCreate
	modeConfirmDelete
)

// Editor applies optimistic edits and creations.
type Editor interface {
	BeginFieldEdit(ctx context.Context, id string, field vehicle.Field, value any) (vehicle.Vehicle, error)
	Create(ctx context.Context, draft vehicle.Vehicle) (vehicle.Vehicle, error)
}

// Deleter removes vehicles after the server confirms.
type Deleter interface {
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

// Fetcher loads the full vehicle list for an explicit reload.
type Fetcher interface {
	FetchVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Editor    Editor
	Deleter   Deleter
	Fetcher   Fetcher
	Logger    *slog.Logger
	LogPath   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	editor    Editor
	deleter   Deleter
	fetcher   Fetcher
	log       *slog.Logger
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration

	// UI state
	keys        keyMap
	help        help.Model
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot state.Snapshot

	// List state
	selectedRow int
	marked      map[string]bool
	mode        inputMode
	input       textinput.Model
	editTarget  string
	deleteIDs   []string
	status      string
	statusErr   bool

	// Log state
	logViewport viewport.Model
	logEntries  []logtail.Entry
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 500 * time.Millisecond
	}

	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Default()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	ti := textinput.New()
	ti.CharLimit = 512

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		editor:      opts.Editor,
		deleter:     opts.Deleter,
		fetcher:     opts.Fetcher,
		log:         logging.OrDiscard(opts.Logger),
		logPath:     opts.LogPath,
		prefs:       p,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(p.Theme),
		currentView: ViewList,
		marked:      make(map[string]bool),
		input:       ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, m.bodyHeight())
		}
		m.ready = true
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.bodyHeight()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.pruneMarked()
		m.clampSelection()
		return m, nil

	case actionMsg:
		m.status = msg.text
		m.statusErr = msg.err != nil
		if msg.err != nil {
			m.status = describeError(msg.err)
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case logEntriesMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.mode {
	case modeEdit, modeCreate:
		return m.handlePromptKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.ViewList), key.Matches(msg, m.keys.Escape):
		m.currentView = ViewList
		return m, nil
	}

	switch m.currentView {
	case ViewList:
		return m.handleListKey(msg)
	case ViewLogs:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleListKey processes keyboard input for the vehicle list.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()

	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Reloading..."
		m.statusErr = false
		return m, reloadCmd(m.ctx, m.fetcher, m.store)

	case key.Matches(msg, m.keys.Create):
		m.mode = modeCreate
		m.input.Placeholder = "placaVeiculo=ABC1D23; preco=45900; tipoVeiculo=Carro; combustivel=Flex; foto1=~/car1.jpg; ..."
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.CycleSort):
		m.prefs.Sort = nextSort(m.prefs.Sort)
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.BulkDelete):
		ids := m.markedIDs()
		if len(ids) == 0 {
			m.status = "Nothing marked; press space to mark vehicles"
			m.statusErr = false
			return m, nil
		}
		if len(ids) > 1 && !m.prefs.ConfirmBulkDelete {
			m.marked = make(map[string]bool)
			return m, bulkDeleteCmd(m.ctx, m.deleter, ids)
		}
		m.deleteIDs = ids
		m.mode = modeConfirmDelete
		return m, nil
	}

	if len(rows) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(rows)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = len(rows) - 1

	case key.Matches(msg, m.keys.Select):
		id := rows[m.selectedRow].vehicle.ID
		if m.marked[id] {
			delete(m.marked, id)
		} else {
			m.marked[id] = true
		}

	case key.Matches(msg, m.keys.Edit):
		r := rows[m.selectedRow]
		m.editTarget = r.vehicle.ID
		m.mode = modeEdit
		m.input.Placeholder = "preco=45900"
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Delete):
		m.deleteIDs = []string{rows[m.selectedRow].vehicle.ID}
		m.mode = modeConfirmDelete
	}

	return m, nil
}

// handlePromptKey routes input to the edit/create prompt.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closePrompt()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		text := m.input.Value()
		mode := m.mode
		target := m.editTarget
		m.closePrompt()

		if mode == modeEdit {
			field, value, err := parseAssignment(text)
			if err != nil {
				m.status = describeError(err)
				m.statusErr = true
				return m, nil
			}
			return m, editCmd(m.ctx, m.editor, target, field, value)
		}

		draft, err := parseDraft(text)
		if err != nil {
			m.status = describeError(err)
			m.statusErr = true
			return m, nil
		}
		return m, createCmd(m.ctx, m.editor, draft)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfirmKey answers the delete confirmation.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := m.deleteIDs
	switch {
	case key.Matches(msg, m.keys.Accept):
		m.mode = modeBrowse
		m.deleteIDs = nil
		for _, id := range ids {
			delete(m.marked, id)
		}
		if len(ids) == 1 {
			return m, deleteCmd(m.ctx, m.deleter, ids[0])
		}
		return m, bulkDeleteCmd(m.ctx, m.deleter, ids)
	case key.Matches(msg, m.keys.Reject):
		m.mode = modeBrowse
		m.deleteIDs = nil
	}
	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewLogs {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

func (m *Model) closePrompt() {
	m.mode = modeBrowse
	m.editTarget = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn("save preferences failed", "path", m.prefsPath, "error", err)
	}
}

func (m *Model) markedIDs() []string {
	var ids []string
	for _, r := range m.rows() {
		if m.marked[r.vehicle.ID] {
			ids = append(ids, r.vehicle.ID)
		}
	}
	return ids
}

// pruneMarked drops marks for vehicles that left the collection.
func (m *Model) pruneMarked() {
	for id := range m.marked {
		if _, ok := m.snapshot.Find(id); !ok {
			delete(m.marked, id)
		}
	}
}

func (m *Model) clampSelection() {
	n := len(m.snapshot.Vehicles)
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// bodyHeight is the space left under the header and above the footer.
func (m Model) bodyHeight() int {
	h := m.height - 4
	if h < 1 {
		return 1
	}
	return h
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.logViewport.View())
	default:
		b.WriteString(m.renderTable(m.bodyHeight()))
	}
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
