package blob

import (
	memorystore "rankcore/internal/infra/blob/memory"
)

// NewMemory returns an in-memory blob.Store suitable for tests. Seed data
// through the concrete memory.Store type.
func NewMemory() Store { return memorystore.New() }
