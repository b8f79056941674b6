// Package imagecodec converts photo references between their on-device form
// and what the inventory webhook expects: base64 payloads for new photos and
// storage ids/paths for photos that were already uploaded.
//
// Local references are file:// URIs (built with FileRef) or plain paths;
// content:// URIs are recognized as local but cannot be read. Uploaded photos
// are addressed by a Locator, which joins a storage origin and path prefix:
//
//	https://<origin>/vehicles/JEEP-COMPASS-<uuid>.jpeg
//	                 └──────── ExtractRemotePath ────────┘
//	                                       └ ExtractRemoteID ┘
package imagecodec
