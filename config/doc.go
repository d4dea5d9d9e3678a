// Package config loads clipxfer settings from flags, environment variables
// and an optional configuration file.
//
// Values are resolved by viper in the usual order: command-line flag, then
// CLIPXFER_* environment variable, then configuration file, then the default
// registered by SetDefaults.
//
// Validate rejects receiving the control protocol on a timed cadence: its data
// frames carry no sequence number, so only a manual cadence can read two equal
// chunks in a row.
package config
