// Package deletion removes vehicles only after the server confirms it. While
// the call is outstanding the vehicles stay listed with a loading marker; a
// failure clears the markers and keeps every vehicle.
//
// # Flow
//
//	Delete(id) / BulkDelete(ids)
//	 ├─> resolve ids against a store snapshot   none found: ErrNotFound
//	 ├─> store.Claim(resolved...)               busy id: state.ErrBusy
//	 ├─> store.SetLoading(resolved, true)
//	 ├─> one request with {id, images} per vehicle
//	 │    ├─ ok:   store.RemoveMany(resolved)
//	 │    └─ fail: store.SetLoading(resolved, false), error returned
//	 └─> release claim
//
// Single and bulk deletes follow the same confirm-then-remove order. Image
// paths are collected from every uploaded photo slot; slots whose path
// cannot be derived are left out of the request.
package deletion
