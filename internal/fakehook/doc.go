// Package fakehook is an in-memory implementation of the inventory webhook.
//
// It answers the same endpoints, in the same wire shapes, as the production
// service: the list is a bare array of snake_case records, creation answers
// [{"success": true, "vehicle": {...}}], and an update answers with only the
// fields it changed. Uploaded photos are stored as paths under the configured
// prefix, and a plate change fills model, years, and color from a lookup
// table the way the real backend does.
//
// Tests use FailNext to make an endpoint fail once, and the fakehook command
// serves it on a local port with an optional delay so optimistic updates can
// be watched in the UI.
package fakehook
