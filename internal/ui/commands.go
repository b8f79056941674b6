package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/patio/internal/logtail"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
	"github.com/five82/patio/internal/webhook"
)

const logTailLines = 500

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// actionMsg reports the outcome of a user-triggered remote operation.
type actionMsg struct {
	text string
	err  error
}

type logEntriesMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// reloadCmd replaces the whole collection with the server's list.
func reloadCmd(ctx context.Context, fetcher Fetcher, store *state.Store) tea.Cmd {
	if fetcher == nil || store == nil {
		return nil
	}
	return func() tea.Msg {
		vehicles, err := fetcher.FetchVehicles(ctx)
		if err != nil {
			store.RecordFailure(err)
			return actionMsg{err: fmt.Errorf("reload: %w", err)}
		}
		store.ReplaceAll(vehicles)
		return actionMsg{text: fmt.Sprintf("Loaded %d vehicles", len(vehicles))}
	}
}

func editCmd(ctx context.Context, editor Editor, id string, field vehicle.Field, value any) tea.Cmd {
	if editor == nil {
		return nil
	}
	return func() tea.Msg {
		updated, err := editor.BeginFieldEdit(ctx, id, field, value)
		if err != nil {
			return actionMsg{err: fmt.Errorf("edit %s: %w", field.Name(), err)}
		}
		return actionMsg{text: fmt.Sprintf("Saved %s on %s", field.Name(), updated.DisplayName())}
	}
}

func createCmd(ctx context.Context, editor Editor, draft vehicle.Vehicle) tea.Cmd {
	if editor == nil {
		return nil
	}
	return func() tea.Msg {
		created, err := editor.Create(ctx, draft)
		if err != nil {
			return actionMsg{err: fmt.Errorf("create: %w", err)}
		}
		return actionMsg{text: "Created " + created.DisplayName()}
	}
}

func deleteCmd(ctx context.Context, deleter Deleter, id string) tea.Cmd {
	if deleter == nil {
		return nil
	}
	return func() tea.Msg {
		if err := deleter.Delete(ctx, id); err != nil {
			return actionMsg{err: fmt.Errorf("delete: %w", err)}
		}
		return actionMsg{text: "Deleted vehicle"}
	}
}

func bulkDeleteCmd(ctx context.Context, deleter Deleter, ids []string) tea.Cmd {
	if deleter == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := deleter.BulkDelete(ctx, ids)
		if err != nil {
			return actionMsg{err: fmt.Errorf("bulk delete: %w", err)}
		}
		return actionMsg{text: fmt.Sprintf("Deleted %d vehicles", n)}
	}
}

func fetchLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, logTailLines)
		return logEntriesMsg{entries: entries, err: err}
	}
}

// describeError turns a remote or validation failure into a status line.
func describeError(err error) string {
	var transport *webhook.TransportError
	switch {
	case errors.Is(err, state.ErrBusy):
		return "Still saving the previous change; try again in a moment"
	case errors.As(err, &transport) && transport.Status == 0:
		return "Server unreachable: " + err.Error()
	default:
		return err.Error()
	}
}
