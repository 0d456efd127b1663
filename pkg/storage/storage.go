// Package storage removes uploaded defect image files when their defect
// is deleted. Uploads are handled by a separate endpoint; both write to
// the same backend, selected by configuration.
package storage

import "context"

// ImageStore removes image files by the filename recorded on the defect.
type ImageStore interface {
	// Remove deletes the named file. Removing a file that no longer
	// exists is not an error; the image row is the source of truth and
	// disk state may lag behind it.
	Remove(ctx context.Context, filename string) error
}
