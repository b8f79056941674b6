// Package logtail reads the tail of patio's log file for the in-app log view.
//
// Read returns the last N raw lines using a ring buffer, so memory stays at
// O(N) regardless of file size. ReadEntries goes one step further and decodes
// each line as a JSON record written by log/slog's JSON handler:
//
//	{"time":"...","level":"WARN","msg":"edit rejected, restoring","vehicle_id":"v1"}
//
// becomes an Entry with Time, Level, Msg and the remaining attributes sorted
// by key. Lines that are not JSON (a panic trace, for instance) are kept
// verbatim in Entry.Raw.
//
// A missing log file is not an error; it simply has no lines yet.
package logtail
