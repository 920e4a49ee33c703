// Package memory provides in-memory implementations of the driven store
// ports. They hold everything in maps guarded by a RWMutex and are used
// for tests and ephemeral runs.
package memory
