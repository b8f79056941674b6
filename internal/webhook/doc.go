// Package webhook provides an HTTP client for the dealership's inventory
// webhook.
//
// # Endpoints
//
// All paths are relative to the configured base URL:
//
//   - GET  vehicles:            full inventory list
//   - POST create-vehicle:      full record plus base64 photos
//   - POST update-vehicle:      diff.Payload with only the changed fields
//   - POST delete-vehicle:      {id, images: [paths]}
//   - POST bulk-delete-vehicle: {vehicles: [{id, images: [paths]}]}
//
// Every request carries an Authorization: Bearer header when a token is
// configured, plus Accept and User-Agent headers.
//
// # Response Decoding
//
// The webhook is loosely typed. The decoder accepts:
//
//   - create/update wrapped as [{vehicle, success}], {vehicle_id, ...},
//     {success, vehicle}, or {vehicle}
//   - the list as a bare array or {data: [...]}
//   - numbers as JSON numbers or numeric strings
//   - snake_case response keys (nome_modelo, placa, tipo, obs, ...)
//   - photos as images: [{path, idx}] in list order, or as individual
//     fotoN keys holding {path, idx}, a string, or null
//
// Storage paths are expanded to display URLs with imagecodec.Locator.
//
// An update response is partial: UpdateVehicle returns a vehicle.Partial
// holding only what the server echoed back, and absent fields mean
// "unchanged". The response id is ignored for updates.
//
// # Errors
//
// Network failures, error statuses, and undecodable bodies are reported as
// *TransportError, matched with errors.As. The client never retries; the
// caller reverts its optimistic state and surfaces the error.
//
// The Client is safe for concurrent use.
package webhook
