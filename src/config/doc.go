// Package config defines the configuration for a DVEL node or simulation
// run.
//
// Regardless of how DVEL is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object
// defined in this package to store and forward configuration options. On
// top of these configuration options, DVEL relies on a data directory,
// defined by Config.DataDir, where it expects to find:
//
//	priv_key // a plain text, hex-encoded Ed25519 seed (cf. "dvel keygen").
package config
