// Package config loads patio's startup configuration.
//
// # Resolution Order
//
//  1. Defaults
//  2. The TOML file (explicit path, or ~/.config/patio/config.toml)
//  3. PATIO_* environment variables, optionally seeded from a .env file
//     with LoadDotEnv
//
// A missing config file is not an error, and empty values fall back to the
// defaults, so patio starts without any configuration.
//
// # TOML Format
//
//	base_url = "https://webhooksintese.gruposintesedigital.com/webhook/as"
//	token = "..."
//	storage_origin = "https://autosintese.s3.sa-east-1.amazonaws.com"
//	storage_prefix = "vehicles"
//	log_path = "~/.local/state/patio/patio.log"
//	log_level = "info"
//	poll_seconds = 15
//	request_timeout_seconds = 30
//	max_image_bytes = 10485760
//
// Each key has an environment counterpart: PATIO_BASE_URL, PATIO_TOKEN,
// PATIO_STORAGE_ORIGIN, and so on.
//
// # Path Expansion
//
// The config path and log_path accept "~" for the home directory and are
// made absolute.
package config
