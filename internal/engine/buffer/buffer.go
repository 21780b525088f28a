package buffer

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not sorted")
)

// Buffer is a thread-safe text buffer with anchor support.
// All methods are safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	id       ID
	path     string
	snapshot *Snapshot
	history  []changeSet // committed batches, ascending by revision

	// Branch provenance. Zero values for ordinary buffers.
	sourceID       ID
	sourceRevision RevisionID
}

// Option configures a Buffer at creation time.
type Option func(*Buffer)

// WithPath associates a file path with the buffer.
func WithPath(path string) Option {
	return func(b *Buffer) { b.path = path }
}

// WithID sets an explicit buffer ID instead of generating one.
func WithID(id ID) Option {
	return func(b *Buffer) { b.id = id }
}

// New creates a buffer with the given initial content.
func New(text string, opts ...Option) *Buffer {
	b := &Buffer{id: NewID()}
	for _, opt := range opts {
		opt(b)
	}
	b.snapshot = newSnapshot(b.id, NewRevisionID(), text)
	return b
}

// ID returns the buffer's identity.
func (b *Buffer) ID() ID {
	return b.id
}

// Path returns the file path associated with the buffer, if any.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.text
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.Len()
}

// RevisionID returns the current revision.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot.revisionID
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Snapshots are immutable and safe to share across goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// Replace replaces text in [start, end) with new text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (RevisionID, error) {
	return b.ApplyEdits([]Edit{{Range: Range{Start: start, End: end}, NewText: text}})
}

// SetText replaces the entire buffer content.
func (b *Buffer) SetText(text string) RevisionID {
	rev, _ := b.ApplyEdits([]Edit{{
		Range:   Range{Start: 0, End: b.Len()},
		NewText: text,
	}})
	return rev
}

// ApplyEdits applies a batch of edits atomically in one new revision.
// Edits must be sorted ascending by range start and must not overlap;
// zero-width edits may share a start offset with a following edit.
func (b *Buffer) ApplyEdits(edits []Edit) (RevisionID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(edits) == 0 {
		return b.snapshot.revisionID, nil
	}

	length := b.snapshot.Len()
	for i, e := range edits {
		if e.Range.Start < 0 || !e.Range.IsValid() || e.Range.End > length {
			return 0, ErrRangeInvalid
		}
		if i > 0 && edits[i-1].Range.End > e.Range.Start {
			return 0, ErrEditsOverlap
		}
	}

	var sb strings.Builder
	applied := make([]appliedEdit, 0, len(edits))
	cursor := ByteOffset(0)
	for _, e := range edits {
		sb.WriteString(b.snapshot.text[cursor:e.Range.Start])
		sb.WriteString(e.NewText)
		cursor = e.Range.End
		applied = append(applied, appliedEdit{
			oldRange: e.Range,
			newLen:   ByteOffset(len(e.NewText)),
		})
	}
	sb.WriteString(b.snapshot.text[cursor:])

	rev := NewRevisionID()
	b.history = append(b.history, changeSet{revision: rev, edits: applied})
	b.snapshot = newSnapshot(b.id, rev, sb.String())
	return rev, nil
}

// AnchorBefore creates a left-biased anchor at the given offset.
// The anchor stays before text inserted at its position.
func (b *Buffer) AnchorBefore(offset ByteOffset) Anchor {
	return b.anchor(offset, BiasLeft)
}

// AnchorAfter creates a right-biased anchor at the given offset.
// The anchor stays after text inserted at its position.
func (b *Buffer) AnchorAfter(offset ByteOffset) Anchor {
	return b.anchor(offset, BiasRight)
}

func (b *Buffer) anchor(offset ByteOffset, bias Bias) Anchor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Anchor{
		BufferID: b.id,
		Revision: b.snapshot.revisionID,
		Offset:   b.snapshot.ClampOffset(offset),
		Bias:     bias,
	}
}

// AnchorRangeAt creates an anchor range spanning [start, end), left-biased
// at the start and right-biased at the end.
func (b *Buffer) AnchorRangeAt(start, end ByteOffset) AnchorRange {
	return AnchorRange{Start: b.AnchorBefore(start), End: b.AnchorAfter(end)}
}

// ResolveAnchor maps an anchor to its current byte offset by replaying every
// change committed after the anchor's revision.
func (b *Buffer) ResolveAnchor(a Anchor) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset := a.Offset
	// history is ascending by revision; skip batches the anchor already saw.
	i := sort.Search(len(b.history), func(i int) bool {
		return b.history[i].revision > a.Revision
	})
	for ; i < len(b.history); i++ {
		offset = b.history[i].transform(offset, a.Bias)
	}
	return b.snapshot.ClampOffset(offset)
}

// ResolveRange maps an anchor range to current byte offsets.
func (b *Buffer) ResolveRange(r AnchorRange) Range {
	start := b.ResolveAnchor(r.Start)
	end := b.ResolveAnchor(r.End)
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// Branch creates a derived buffer seeded with this buffer's current content.
// Writes to the branch never affect the source; the branch records which
// source revision it was forked from.
func (b *Buffer) Branch() *Buffer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	nb := &Buffer{
		id:             NewID(),
		path:           b.path,
		sourceID:       b.id,
		sourceRevision: b.snapshot.revisionID,
	}
	nb.snapshot = newSnapshot(nb.id, NewRevisionID(), b.snapshot.text)
	return nb
}

// IsBranch returns true if this buffer was created by Branch.
func (b *Buffer) IsBranch() bool {
	return b.sourceID != ""
}

// SourceID returns the identity of the buffer this branch was forked from,
// or the empty ID for ordinary buffers.
func (b *Buffer) SourceID() ID {
	return b.sourceID
}
