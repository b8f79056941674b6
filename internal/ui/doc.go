// Package ui provides the Bubble Tea terminal interface for patio.
//
// The Model polls state.Store snapshots on a short tick and renders the
// vehicle list with per-field pending markers, plate lookup placeholders,
// and delete/create progress. Edits, creations, and deletions run as
// tea.Cmds against the mutation and deletion coordinators; the store is
// updated optimistically by those coordinators, so the next snapshot shows
// the change before the server answers.
//
// Key bindings:
//
//   - j/k, g/G: Move selection
//   - e: Edit a field of the selected vehicle (field=value)
//   - n: Create a vehicle (field=value; field=value; ...)
//   - d: Delete the selected vehicle
//   - space / x: Mark vehicles / delete all marked
//   - r: Reload the full list from the server
//   - s: Cycle sort order
//   - l / v: Log view / vehicle list
//   - T: Cycle theme
//   - h/?: Help
//   - q or Ctrl+C: Exit
package ui
