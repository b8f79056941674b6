package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Pending fields end in " + pendingMark + "; plate lookups show " + loadingText))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderHeader renders the status line above the content.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	parts := []string{styles.Logo.Render("patio")}

	switch m.currentView {
	case ViewLogs:
		parts = append(parts, styles.Text.Render("logs"))
	default:
		parts = append(parts, styles.Text.Render(fmt.Sprintf("%d vehicles", len(snap.Vehicles))))
		if n := len(m.marked); n > 0 {
			parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d marked", n)))
		}
		if n := len(snap.Mutations); n > 0 {
			parts = append(parts, styles.InfoText.Render(fmt.Sprintf("%d saving", n)))
		}
		parts = append(parts, styles.MutedText.Render("sort: "+m.prefs.Sort))
	}

	switch {
	case snap.IsOffline():
		parts = append(parts, styles.DangerText.Render("offline"))
	case snap.LastError != nil:
		parts = append(parts, styles.WarningText.Render("sync failed"))
	case !snap.LastUpdated.IsZero():
		parts = append(parts, styles.FaintText.Render("synced "+formatAge(time.Since(snap.LastUpdated))+" ago"))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, styles.FaintText.Render(" • ")))
}

// renderFooter renders the prompt, confirmation, or status line and the
// short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	var line string
	switch m.mode {
	case modeEdit:
		name := m.editTarget
		if v, ok := m.snapshot.Find(m.editTarget); ok {
			name = v.DisplayName()
		}
		line = styles.AccentText.Render("edit "+name+": ") + m.input.View()
	case modeCreate:
		line = styles.AccentText.Render("new: ") + m.input.View()
	case modeConfirmDelete:
		line = styles.DangerText.Render(m.confirmQuestion()) + styles.MutedText.Render(" [y/n]")
	default:
		switch {
		case m.status == "":
		case m.statusErr:
			line = styles.DangerText.Render(m.status)
		default:
			line = styles.SuccessText.Render(m.status)
		}
	}

	return line + "\n" + styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) confirmQuestion() string {
	if len(m.deleteIDs) == 1 {
		name := m.deleteIDs[0]
		if v, ok := m.snapshot.Find(name); ok {
			name = v.DisplayName()
		}
		return "Delete " + name + "?"
	}
	return fmt.Sprintf("Delete %d vehicles?", len(m.deleteIDs))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
