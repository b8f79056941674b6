// Package state provides the thread-safe vehicle collection shared by the
// poller, the mutation coordinators, and the UI.
//
// # Overview
//
// The Store is created once per session by app.Run and reset at teardown.
// Three kinds of writers meet here:
//
//	Poller (background):          Coordinators (user actions):
//	┌──────────────────┐          ┌─────────────────────────────┐
//	│ FetchVehicles()  │          │ ApplyOptimistic / Restore   │
//	│       ↓          │          │ UpdateConfirmed             │
//	│ store.SmartMerge │────┐ ┌───│ InsertOptimistic / Confirm  │
//	└──────────────────┘    │ │   │ SetLoading / RemoveMany     │
//	                        ↓ ↓   └─────────────────────────────┘
//	                     ┌────────┐
//	                     │ Store  │──→ store.Snapshot() ──→ UI
//	                     └────────┘
//
// Each method holds the write lock for its whole effect, so a reader never
// sees a half-applied merge or a restored record that still shows a loading
// marker.
//
// # Overlays
//
// Vehicles are plain values. Whether a vehicle has an unconfirmed edit, which
// fields are pending, and whether plate-derived fields are reloading live in
// a side table of Mutation values keyed by vehicle id. Deletion and creation
// progress is a separate loading set. Both are cleared by the operation that
// settles the vehicle (UpdateConfirmed, Restore, ConfirmInsert, Remove).
//
// # Merge Semantics
//
//	ReplaceAll(records)  → collection = records, overlays discarded
//	SmartMerge(records)  → updating vehicles win over the fetched copy and
//	                       keep their position; unknown updating vehicles
//	                       are prepended; everything else follows the server
//
// ReplaceAll is the explicit user refresh. SmartMerge is what the poller uses,
// so a background refresh never rolls back an edit the user is watching.
//
// # Single Flight
//
// Claim reserves vehicle ids for one mutation. A second edit or delete of a
// reserved id fails fast with ErrBusy instead of racing the first one.
// Mutations on different ids proceed independently.
//
// # Copying
//
// Every write builds a new slice, and Snapshot returns independent copies of
// the collection, overlays, and error, so the UI may hold a snapshot while
// the store moves on.
//
// The zero Store is ready to use.
package state
