// Package engine maps a tree of source files to a tree of output files.
//
// Callers configure an Engine with registration calls (RegisterGenerator,
// RegisterInnerHTML, Preserve, CopyDirectory, AddOverride) and then consume it
// with a single Generate call. Every matched source path is claimed by at most
// one registration; every destination path is claimed by at most one task.
// Losing claimants are logged and dropped, never silently overwritten.
//
// Components that need to cooperate without a central composition root (the
// navigation baker is one) publish typed capabilities in the engine's
// extension.Registry.
//
// Registry invariants are also checked with gopter properties that only build
// under the property tag:
//
//	go test -tags property ./internal/engine/
package engine
