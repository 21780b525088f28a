package patch

import (
	"sort"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

// LocatedEdit is an edit whose target has been resolved to a concrete byte
// range within one content snapshot.
type LocatedEdit struct {
	// Range addresses the snapshot of the owning LocatedBuffer.
	Range buffer.Range

	// NewText is the replacement text, already adjusted for the edit kind
	// (inserts carry their separator newline, deletes are empty).
	NewText string

	// Description is the proposal's human-readable note for this edit.
	Description string

	// InputIndex records which edit of the owning Patch revision produced
	// this location. It is provenance used to detect reuse across
	// revisions.
	InputIndex int
}

// LocatedBuffer caches where a patch's edits land within one file.
type LocatedBuffer struct {
	Path     string
	Snapshot *buffer.Snapshot
	Edits    []LocatedEdit // sorted ascending by Range.Start
}

// Insert adds a located edit at its sorted position. Zero-width edits sort
// before edits starting at the same offset, so insertions stay ahead of the
// regions they abut.
func (lb *LocatedBuffer) Insert(edit LocatedEdit) {
	i := sort.Search(len(lb.Edits), func(i int) bool {
		return lb.Edits[i].Range.Compare(edit.Range) >= 0
	})
	lb.Edits = append(lb.Edits, LocatedEdit{})
	copy(lb.Edits[i+1:], lb.Edits[i:])
	lb.Edits[i] = edit
}

// FindByInput returns the located edit with the given input index, if any.
func (lb *LocatedBuffer) FindByInput(inputIndex int) (LocatedEdit, bool) {
	for _, e := range lb.Edits {
		if e.InputIndex == inputIndex {
			return e, true
		}
	}
	return LocatedEdit{}, false
}

// LocatedPatch pairs a patch revision with the cached locations of its
// edits, one bucket per touched path.
type LocatedPatch struct {
	Input   Patch
	Buffers []LocatedBuffer // sorted ascending by Path
}

// Bucket returns the bucket for a path, creating it (with the given
// snapshot) if absent. Buckets stay sorted by path.
func (lp *LocatedPatch) Bucket(path string, snapshot *buffer.Snapshot) *LocatedBuffer {
	i := sort.Search(len(lp.Buffers), func(i int) bool {
		return lp.Buffers[i].Path >= path
	})
	if i < len(lp.Buffers) && lp.Buffers[i].Path == path {
		return &lp.Buffers[i]
	}
	lp.Buffers = append(lp.Buffers, LocatedBuffer{})
	copy(lp.Buffers[i+1:], lp.Buffers[i:])
	lp.Buffers[i] = LocatedBuffer{Path: path, Snapshot: snapshot}
	return &lp.Buffers[i]
}

// Lookup returns the bucket for a path without creating it.
func (lp *LocatedPatch) Lookup(path string) (*LocatedBuffer, bool) {
	if lp == nil {
		return nil, false
	}
	i := sort.Search(len(lp.Buffers), func(i int) bool {
		return lp.Buffers[i].Path >= path
	})
	if i < len(lp.Buffers) && lp.Buffers[i].Path == path {
		return &lp.Buffers[i], true
	}
	return nil, false
}
