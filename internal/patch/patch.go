// Package patch defines the data model for AI-proposed edits: the raw patch
// proposal, its per-buffer located form, and the fully resolved form that is
// ready to preview and apply.
package patch

import (
	"fmt"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

// ID is an opaque patch handle. The store assigns IDs monotonically.
type ID uint64

// String returns a human-readable representation of the ID.
func (id ID) String() string {
	return fmt.Sprintf("patch-%d", id)
}

// Status describes how complete a patch proposal is. A streaming proposal is
// Pending until the producer marks it Ready.
type Status uint8

const (
	// StatusPending marks a patch that is still being produced.
	StatusPending Status = iota

	// StatusReady marks a complete patch.
	StatusReady
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	if s == StatusReady {
		return "ready"
	}
	return "pending"
}

// Patch is one AI-proposed change set against named files.
type Patch struct {
	// HostRange locates the patch inside the conversation buffer that
	// produced it. The engine treats it as opaque.
	HostRange buffer.AnchorRange

	// Title is a short human-readable summary.
	Title string

	// Edits are the proposed operations, in declaration order.
	Edits []Edit

	// Status reports whether the proposal is complete.
	Status Status
}

// Edit is one operation against one file.
type Edit struct {
	Path string
	Kind Kind
}

// Equal reports structural identity: same path and same kind value.
func (e Edit) Equal(other Edit) bool {
	return e.Path == other.Path && e.Kind == other.Kind
}
