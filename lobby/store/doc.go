// Package store persists small pieces of client state between runs.
//
// The store package implements:
//   - A key/value Store interface with memory, file and badger backends
//   - Prefix scoping so several components can share one backend
//   - JSON helpers for structured values
//   - The per-install session identifier
//
// Backends:
//
// MemoryStore lives for the process, like browser session storage.
// FileStore writes one JSON document per key into a directory, which
// keeps the state readable on disk. BadgerStore uses an embedded badger
// database and can expire entries after a TTL.
//
// Usage:
//
//	s, err := store.Open(store.BackendFile, "~/.halfway", 0)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	panels := store.Scope(s, "lobby:ABCD1234:")
//	_ = store.SetJSON(panels, "panels", flags)
package store
