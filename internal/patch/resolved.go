package patch

import (
	"fmt"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

// ResolvedEdit is a located edit remapped onto the live buffer, addressed by
// anchors so it stays valid while the buffer keeps changing.
type ResolvedEdit struct {
	Range       buffer.AnchorRange
	NewText     string
	Description string
}

// ResolvedEditGroup clusters nearby edits into one reviewable context
// window. ContextRange always fully encloses every edit in the group.
type ResolvedEditGroup struct {
	ContextRange buffer.AnchorRange
	Edits        []ResolvedEdit
}

// ResolveError records one edit that could not be resolved.
type ResolveError struct {
	EditIndex int
	Message   string
}

// Error implements the error interface.
func (e ResolveError) Error() string {
	return fmt.Sprintf("edit %d: %s", e.EditIndex, e.Message)
}

// ResolvedPatch is the result of resolving a located patch against the
// current live buffers: merged, grouped, anchored edits plus any per-edit
// failures.
type ResolvedPatch struct {
	Title      string
	EditGroups map[buffer.ID][]ResolvedEditGroup
	Errors     []ResolveError
}

// GroupCount returns the total number of edit groups across all buffers.
func (rp *ResolvedPatch) GroupCount() int {
	n := 0
	for _, groups := range rp.EditGroups {
		n += len(groups)
	}
	return n
}
