// Package editor provides the review surface for proposed patches: a
// multibuffer that stitches excerpts of several buffers into one scrollable
// view.
package editor

import (
	"sort"
	"sync"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

// ExcerptID identifies one excerpt within a Multibuffer.
type ExcerptID uint64

// Excerpt is one context window of a source buffer shown in the review
// view. The range is anchored so it follows the buffer as it changes.
type Excerpt struct {
	ID       ExcerptID
	BufferID buffer.ID
	Path     string
	Range    buffer.AnchorRange
}

// RangeResolver maps an excerpt's anchored range to current byte offsets
// in its source buffer.
type RangeResolver func(id buffer.ID, rng buffer.AnchorRange) buffer.Range

// Multibuffer is an ordered collection of excerpts from one or more
// buffers, kept sorted by path and position. It is safe for concurrent
// use.
type Multibuffer struct {
	mu       sync.Mutex
	title    string
	nextID   ExcerptID
	excerpts []Excerpt
	resolve  RangeResolver
}

// NewMultibuffer returns an empty multibuffer with the given title.
func NewMultibuffer(title string) *Multibuffer {
	return &Multibuffer{title: title, nextID: 1}
}

// Title returns the current title.
func (m *Multibuffer) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// SetTitle replaces the title.
func (m *Multibuffer) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

// SetResolver installs the resolver positions are ordered by. Without one,
// excerpts sort by the offsets their anchors were created at, which can go
// stale once source buffers drift.
func (m *Multibuffer) SetResolver(r RangeResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolve = r
}

// Excerpts returns a copy of the excerpts in display order.
func (m *Multibuffer) Excerpts() []Excerpt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Excerpt, len(m.excerpts))
	copy(out, m.excerpts)
	return out
}

// ExcerptsFor returns the excerpts belonging to one buffer, in display
// order.
func (m *Multibuffer) ExcerptsFor(id buffer.ID) []Excerpt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Excerpt
	for _, ex := range m.excerpts {
		if ex.BufferID == id {
			out = append(out, ex)
		}
	}
	return out
}

// Len returns the number of excerpts.
func (m *Multibuffer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.excerpts)
}

// PushExcerpt adds an excerpt at its sorted position and returns its ID.
func (m *Multibuffer) PushExcerpt(bufID buffer.ID, path string, rng buffer.AnchorRange) ExcerptID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex := Excerpt{ID: m.nextID, BufferID: bufID, Path: path, Range: rng}
	m.nextID++

	i := sort.Search(len(m.excerpts), func(i int) bool {
		return !m.excerptLess(m.excerpts[i], ex)
	})
	m.excerpts = append(m.excerpts, Excerpt{})
	copy(m.excerpts[i+1:], m.excerpts[i:])
	m.excerpts[i] = ex
	return ex.ID
}

// RemoveExcerpts deletes the excerpts with the given IDs. Unknown IDs are
// ignored.
func (m *Multibuffer) RemoveExcerpts(ids ...ExcerptID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[ExcerptID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.excerpts[:0]
	for _, ex := range m.excerpts {
		if !drop[ex.ID] {
			kept = append(kept, ex)
		}
	}
	m.excerpts = kept
}

// Clear removes all excerpts.
func (m *Multibuffer) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excerpts = nil
}

func (m *Multibuffer) excerptLess(a, b Excerpt) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	ar, br := m.position(a), m.position(b)
	if ar.Start != br.Start {
		return ar.Start < br.Start
	}
	return ar.End < br.End
}

// position yields an excerpt's current range for ordering.
func (m *Multibuffer) position(ex Excerpt) buffer.Range {
	if m.resolve != nil {
		return m.resolve(ex.BufferID, ex.Range)
	}
	return buffer.Range{Start: ex.Range.Start.Offset, End: ex.Range.End.Offset}
}
