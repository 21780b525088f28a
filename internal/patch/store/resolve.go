package store

import (
	"context"

	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/engine/diff"
	"github.com/dshills/patchwork/internal/patch"
)

// offsetEdit is a resolved edit in live-buffer byte coordinates, before
// anchoring.
type offsetEdit struct {
	rng         buffer.Range
	newText     string
	description string
}

// ResolvePatch converts a patch's cached locations into anchors valid on the
// current buffer state, merges overlapping edits, and clusters them into
// context windows. It waits for any in-flight relocation of the patch.
//
// Per-path failures are non-fatal: that path's edits are skipped and
// recorded in the result's Errors.
func (s *Store) ResolvePatch(ctx context.Context, id patch.ID) (*patch.ResolvedPatch, error) {
	located, title, err := s.awaitLocated(ctx, id)
	if err != nil {
		return nil, err
	}

	rp := &patch.ResolvedPatch{
		Title:      title,
		EditGroups: make(map[buffer.ID][]patch.ResolvedEditGroup),
	}
	if located == nil {
		return rp, nil
	}

	for _, bucket := range located.Buffers {
		buf, err := s.files.OpenOrCreate(ctx, bucket.Path)
		if err != nil {
			for _, le := range bucket.Edits {
				rp.Errors = append(rp.Errors, patch.ResolveError{
					EditIndex: le.InputIndex,
					Message:   err.Error(),
				})
			}
			continue
		}

		live := buf.Snapshot()
		hunks := diff.Strings(bucket.Snapshot.Text(), live.Text())
		edits := remapEdits(bucket.Edits, hunks, live)
		merged := mergeEdits(edits)
		groups := groupEdits(buf, live, merged, s.contextLines)
		if len(groups) > 0 {
			rp.EditGroups[buf.ID()] = append(rp.EditGroups[buf.ID()], groups...)
		}
	}
	return rp, nil
}

// awaitLocated waits for the patch's current relocation to finish and
// returns the committed located form. If an update supersedes the
// relocation while waiting, it waits for the replacement instead.
func (s *Store) awaitLocated(ctx context.Context, id patch.ID) (*patch.LocatedPatch, string, error) {
	for {
		s.mu.Lock()
		e, ok := s.patches[id]
		if !ok {
			s.mu.Unlock()
			return nil, "", ErrPatchNotFound
		}
		done := e.done
		gen := e.generation
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}

		s.mu.Lock()
		e, ok = s.patches[id]
		if !ok {
			s.mu.Unlock()
			return nil, "", ErrPatchNotFound
		}
		if e.generation == gen {
			located := e.located
			title := e.patch.Title
			s.mu.Unlock()
			return located, title, nil
		}
		s.mu.Unlock()
	}
}

// remapEdits maps located edit ranges from snapshot coordinates into live
// coordinates by merging the sorted diff hunks against the sorted edits in
// one forward pass with a running delta. A hunk overlapping an edit widens
// the edit to at least cover the hunk, so the edit never targets a changed
// region its replacement text assumed was unchanged.
func remapEdits(edits []patch.LocatedEdit, hunks []diff.Hunk, live *buffer.Snapshot) []offsetEdit {
	out := make([]offsetEdit, 0, len(edits))
	hi := 0
	var delta buffer.ByteOffset

	for _, le := range edits {
		for hi < len(hunks) && hunks[hi].OldRange.End <= le.Range.Start {
			delta += hunks[hi].Delta()
			hi++
		}

		start := le.Range.Start + delta
		end := le.Range.End + delta

		// Overlapping hunks widen the edit. They are not consumed here:
		// a single hunk can span into the next edit as well.
		d := delta
		for j := hi; j < len(hunks) && hunks[j].OldRange.Start < le.Range.End; j++ {
			if hunks[j].NewRange.Start < start {
				start = hunks[j].NewRange.Start
			}
			d += hunks[j].Delta()
			if e := le.Range.End + d; e > end {
				end = e
			}
			if hunks[j].NewRange.End > end {
				end = hunks[j].NewRange.End
			}
		}

		start = live.ClampOffset(start)
		end = live.ClampOffset(end)
		if end < start {
			end = start
		}
		out = append(out, offsetEdit{
			rng:         buffer.Range{Start: start, End: end},
			newText:     le.NewText,
			description: le.Description,
		})
	}
	return out
}

// mergeEdits sorts edits by range and collapses neighbors where one range
// fully contains the other.
func mergeEdits(edits []offsetEdit) []offsetEdit {
	sortOffsetEdits(edits)

	out := make([]offsetEdit, 0, len(edits))
	for _, e := range edits {
		if len(out) > 0 {
			if merged, ok := tryMerge(out[len(out)-1], e); ok {
				out[len(out)-1] = merged
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func sortOffsetEdits(edits []offsetEdit) {
	// Insertion sort: the remap pass keeps edits nearly sorted already.
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j].rng.Compare(edits[j-1].rng) < 0; j-- {
			edits[j], edits[j-1] = edits[j-1], edits[j]
		}
	}
}

// tryMerge merges two adjacent edits (a precedes b in sort order) when
// their ranges contain or overlap each other. A zero-width insertion
// sitting exactly at the container's start is prepended into it with a
// newline separator; otherwise descriptions are joined and only the later
// edit's text is kept. Partially overlapping ranges arise when one drift
// hunk spans the tail of one edit and the head of the next, widening both
// into each other; the union keeps the output non-overlapping.
func tryMerge(a, b offsetEdit) (offsetEdit, bool) {
	switch {
	case a.rng.ContainsRange(b.rng):
		if b.rng.IsEmpty() && b.rng.Start == a.rng.Start {
			a.newText = b.newText + "\n" + a.newText
		} else {
			a.description = joinDescriptions(a.description, b.description)
			a.newText = b.newText
		}
		return a, true

	case b.rng.ContainsRange(a.rng):
		if a.rng.IsEmpty() && a.rng.Start == b.rng.Start {
			b.newText = a.newText + "\n" + b.newText
			b.rng.Start = a.rng.Start
			return b, true
		}
		b.description = joinDescriptions(a.description, b.description)
		return b, true

	case a.rng.End > b.rng.Start:
		// Sort order gives a.Start <= b.Start, and neither range contains
		// the other, so b extends past a: the union is [a.Start, b.End).
		b.rng.Start = a.rng.Start
		b.description = joinDescriptions(a.description, b.description)
		return b, true
	}
	return a, false
}

func joinDescriptions(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

// groupEdits clusters edits into context windows of ±contextLines rows and
// coalesces windows that touch or overlap, so nearby edits render as one
// diff hunk instead of fragmenting.
func groupEdits(buf *buffer.Buffer, live *buffer.Snapshot, edits []offsetEdit, contextLines int) []patch.ResolvedEditGroup {
	type groupAcc struct {
		ctx   buffer.Range
		edits []offsetEdit
	}

	var acc []groupAcc
	for _, e := range edits {
		startRow := int(live.OffsetToPoint(e.rng.Start).Line) - contextLines
		endRow := int(live.OffsetToPoint(e.rng.End).Line) + contextLines
		ctx := buffer.Range{
			Start: live.LineStartOffset(live.ClampRow(startRow)),
			End:   live.LineEndOffset(live.ClampRow(endRow)),
		}

		if n := len(acc); n > 0 && acc[n-1].ctx.End >= ctx.Start {
			acc[n-1].ctx = acc[n-1].ctx.Union(ctx)
			acc[n-1].edits = append(acc[n-1].edits, e)
			continue
		}
		acc = append(acc, groupAcc{ctx: ctx, edits: []offsetEdit{e}})
	}

	groups := make([]patch.ResolvedEditGroup, 0, len(acc))
	for _, g := range acc {
		rg := patch.ResolvedEditGroup{
			ContextRange: buf.AnchorRangeAt(g.ctx.Start, g.ctx.End),
		}
		for _, e := range g.edits {
			rg.Edits = append(rg.Edits, patch.ResolvedEdit{
				Range:       buf.AnchorRangeAt(e.rng.Start, e.rng.End),
				NewText:     e.newText,
				Description: e.description,
			})
		}
		groups = append(groups, rg)
	}
	return groups
}
