// Package mutation applies user edits optimistically: the store shows the new
// value at once, the change is sent as a minimal diff, and the server's
// partial answer is merged back or the edit is rolled back.
//
// # Edit Lifecycle
//
//	BeginFieldEdit(id, field, value)
//	 ├─> store.Claim(id)              second edit on id fails with state.ErrBusy
//	 ├─> store.ApplyOptimistic        Updating, pending field, plate marker
//	 ├─> diff.Engine.Build            empty payload: Restore, no request
//	 ├─> Remote.UpdateVehicle
//	 │    ├─ ok:   partial.Apply → store.UpdateConfirmed
//	 │    └─ fail: store.Restore(pre-edit record), error returned
//	 └─> release claim
//
// Fields absent from the server's partial answer keep their optimistic value.
// A plate edit also marks the plate-derived fields (model, years, color) as
// reloading until the answer arrives, since the server may refill them.
//
// # Creation
//
// Create rejects drafts that fail vehicle.MissingRequired with
// ErrMissingRequired before touching the store. A valid draft is inserted
// under a "temp-" id with a loading marker, and ConfirmInsert swaps it for
// the server record in place. A failed creation removes the draft.
//
// Different vehicles are edited concurrently. Each call blocks until the
// server answers, so the UI runs it inside a tea.Cmd.
package mutation
