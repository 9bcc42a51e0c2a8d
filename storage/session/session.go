// Package session implements the session storage kind: an in-process-only
// backend identical in mechanics to memory, but logically bound to a
// scenario's lifetime so the store manager clears it on scenario end
// (cleanupScenarioStores) rather than only on an explicit resetStores.
package session

import (
	"github.com/MrtnvM/render-engine/storage/memory"
)

// Backend is a process-local map scoped to a single scenario run.
type Backend = memory.Backend

// New returns an empty session backend.
func New() *Backend {
	return memory.New()
}
