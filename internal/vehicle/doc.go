// Package vehicle defines the dealership's vehicle record and the closed set
// of fields the rest of patio reads, edits, and diffs.
//
// Vehicle is a plain value. Each Field carries its wire name (nomeModelo,
// placaVeiculo, ..., foto1..foto12), its Kind, and a typed getter and
// setter, so callers iterate ScalarFields or ImageFields instead of string
// keys. Set coerces numbers and numeric strings and fails with
// ErrInvalidValue otherwise. A Partial is the server's answer to an update:
// fields it omits are left unchanged by Apply.
package vehicle
