package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/patio/internal/logtail"
)

// refreshLogs reloads the tail of the log file.
func (m *Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	return fetchLogsCmd(m.logPath)
}

// updateLogViewport renders the loaded entries and follows the tail.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	atBottom := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	m.logViewport.SetContent(m.renderLogContent())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent colorizes entries by level.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles()

	switch {
	case m.logPath == "":
		return styles.MutedText.Render("File logging is disabled")
	case m.logErr != nil:
		return styles.DangerText.Render("Cannot read " + m.logPath + ": " + m.logErr.Error())
	case len(m.logEntries) == 0:
		return styles.MutedText.Render("No log entries")
	}

	lines := make([]string, len(m.logEntries))
	for i, e := range m.logEntries {
		lines[i] = formatLogEntry(e, styles)
	}
	return strings.Join(lines, "\n")
}

func formatLogEntry(e logtail.Entry, styles Styles) string {
	if e.Raw != "" {
		return styles.FaintText.Render(e.Raw)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(styles.LevelStyle(e.Level).Render(fit(e.Level, 5)))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Msg))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(a.Key + "="))
		b.WriteString(styles.AccentText.Render(a.Value))
	}
	return b.String()
}
