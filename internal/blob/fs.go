package blob

import (
	fsstore "rankcore/internal/infra/blob/fs"
)

// NewFilesystem returns a filesystem-backed blob.Store rooted at path. An
// empty root falls back to the driver default.
func NewFilesystem(root string) (Store, error) {
	return fsstore.New(root)
}
