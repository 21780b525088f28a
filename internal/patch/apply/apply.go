// Package apply projects resolved patches onto branch buffers for preview
// and keeps the review multibuffer's excerpts in sync with the latest
// resolution.
package apply

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dshills/patchwork/internal/editor"
	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/patch"
	"github.com/dshills/patchwork/internal/project/filestore"
)

// appliedEdit records one edit already applied to a branch, in source
// buffer coordinates as of the branch's fork revision.
type appliedEdit struct {
	srcRange buffer.Range
	newText  string
}

// branchState tracks the preview branch for one source buffer.
type branchState struct {
	branch       *buffer.Buffer
	forkRevision buffer.RevisionID
	applied      []appliedEdit
}

// Applier maintains a branch buffer per source buffer, applies resolved
// edits to the branches, and reconciles the multibuffer's excerpts each
// time a patch is re-resolved. Edits that are already present on a branch
// are not applied twice. All methods are safe for concurrent use.
type Applier struct {
	mu     sync.Mutex
	files  *filestore.FileStore
	view   *editor.Multibuffer
	states map[buffer.ID]*branchState
	log    *slog.Logger
}

// New creates an Applier rendering into the given multibuffer. The view is
// given a resolver so excerpt ordering follows the source buffers as they
// drift, keeping reconciliation's merge pass aligned with resolved
// positions.
func New(files *filestore.FileStore, view *editor.Multibuffer) *Applier {
	view.SetResolver(func(id buffer.ID, rng buffer.AnchorRange) buffer.Range {
		if src, ok := files.GetByID(id); ok {
			return src.ResolveRange(rng)
		}
		return buffer.Range{Start: rng.Start.Offset, End: rng.End.Offset}
	})
	return &Applier{
		files:  files,
		view:   view,
		states: make(map[buffer.ID]*branchState),
		log:    slog.Default().With("component", "applier"),
	}
}

// Branch returns the preview branch for a source buffer, if one exists.
func (a *Applier) Branch(id buffer.ID) (*buffer.Buffer, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[id]
	if !ok {
		return nil, false
	}
	return st.branch, true
}

// Apply projects a resolved patch onto the preview branches and updates the
// multibuffer's title and excerpts. Buffers no longer mentioned by the
// patch have their branches and excerpts dropped.
func (a *Applier) Apply(rp *patch.ResolvedPatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.view.SetTitle(rp.Title)

	seen := make(map[buffer.ID]bool, len(rp.EditGroups))
	for id, groups := range rp.EditGroups {
		seen[id] = true
		src, ok := a.files.GetByID(id)
		if !ok {
			return fmt.Errorf("apply: buffer %s not open", id)
		}
		if err := a.applyBuffer(src, groups); err != nil {
			return err
		}
		a.reconcileExcerpts(src, groups)
	}

	for id := range a.states {
		if !seen[id] {
			delete(a.states, id)
			for _, ex := range a.view.ExcerptsFor(id) {
				a.view.RemoveExcerpts(ex.ID)
			}
		}
	}
	return nil
}

// applyBuffer brings one source buffer's branch up to date with the
// incoming edits.
func (a *Applier) applyBuffer(src *buffer.Buffer, groups []patch.ResolvedEditGroup) error {
	incoming := flattenEdits(src, groups)

	st := a.states[src.ID()]
	if st == nil || st.forkRevision != src.RevisionID() {
		// Source moved since the fork: prior branch coordinates are
		// stale, start preview over from the live content.
		st = &branchState{branch: src.Branch(), forkRevision: src.RevisionID()}
		a.states[src.ID()] = st
	}

	toApply, compatible := diffApplied(st.applied, incoming)
	if !compatible {
		st.branch = src.Branch()
		st.forkRevision = src.RevisionID()
		st.applied = nil
		toApply = incoming
	}
	if len(toApply) == 0 {
		return nil
	}

	edits := make([]buffer.Edit, 0, len(toApply))
	for _, e := range toApply {
		edits = append(edits, buffer.Edit{
			Range:   mapToBranch(st.applied, e.srcRange),
			NewText: e.newText,
		})
	}
	if _, err := st.branch.ApplyEdits(edits); err != nil {
		return fmt.Errorf("apply %s: %w", src.Path(), err)
	}

	st.applied = incoming
	a.log.Debug("applied edits to branch",
		"path", src.Path(), "new", len(toApply), "total", len(incoming))
	return nil
}

// flattenEdits resolves all group edits into source coordinates, sorted
// ascending.
func flattenEdits(src *buffer.Buffer, groups []patch.ResolvedEditGroup) []appliedEdit {
	var out []appliedEdit
	for _, g := range groups {
		for _, e := range g.Edits {
			out = append(out, appliedEdit{
				srcRange: src.ResolveRange(e.Range),
				newText:  e.NewText,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].srcRange.Compare(out[j].srcRange) < 0
	})
	return out
}

// diffApplied walks the already-applied and incoming edit lists together
// and returns the incoming edits not yet on the branch. It reports false
// when the branch cannot be extended in place: an applied edit was removed
// or rewritten, so the branch must be rebuilt.
func diffApplied(applied, incoming []appliedEdit) (toApply []appliedEdit, compatible bool) {
	ai := 0
	for _, in := range incoming {
		if ai < len(applied) && applied[ai] == in {
			ai++
			continue
		}
		if ai < len(applied) && applied[ai].srcRange.Overlaps(in.srcRange) {
			return nil, false
		}
		toApply = append(toApply, in)
	}
	if ai != len(applied) {
		return nil, false
	}
	return toApply, true
}

// mapToBranch translates a source-coordinate range into the branch's
// coordinates by accumulating the length deltas of applied edits that
// precede it.
func mapToBranch(applied []appliedEdit, r buffer.Range) buffer.Range {
	var delta buffer.ByteOffset
	for _, ae := range applied {
		if ae.srcRange.End > r.Start {
			break
		}
		delta += buffer.ByteOffset(len(ae.newText)) - ae.srcRange.Len()
	}
	return buffer.Range{Start: r.Start + delta, End: r.End + delta}
}

// reconcileExcerpts makes the multibuffer's excerpts for one buffer match
// the resolved groups, adding and removing only what changed.
func (a *Applier) reconcileExcerpts(src *buffer.Buffer, groups []patch.ResolvedEditGroup) {
	type want struct {
		rng buffer.Range
		ar  buffer.AnchorRange
	}
	wanted := make([]want, 0, len(groups))
	for _, g := range groups {
		wanted = append(wanted, want{rng: src.ResolveRange(g.ContextRange), ar: g.ContextRange})
	}
	sort.Slice(wanted, func(i, j int) bool {
		return wanted[i].rng.Compare(wanted[j].rng) < 0
	})

	current := a.view.ExcerptsFor(src.ID())

	// Both lists are sorted by position; one forward pass classifies
	// keeps, removals, and additions.
	ci, wi := 0, 0
	for ci < len(current) && wi < len(wanted) {
		have := src.ResolveRange(current[ci].Range)
		switch have.Compare(wanted[wi].rng) {
		case 0:
			ci++
			wi++
		case -1:
			a.view.RemoveExcerpts(current[ci].ID)
			ci++
		default:
			a.view.PushExcerpt(src.ID(), src.Path(), wanted[wi].ar)
			wi++
		}
	}
	for ; ci < len(current); ci++ {
		a.view.RemoveExcerpts(current[ci].ID)
	}
	for ; wi < len(wanted); wi++ {
		a.view.PushExcerpt(src.ID(), src.Path(), wanted[wi].ar)
	}
}
