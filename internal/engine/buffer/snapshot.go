package buffer

import (
	"sort"
	"strings"
)

// Snapshot provides a read-only view of a buffer at a specific point in time.
// It is safe for concurrent access and will not change even if the original
// buffer is modified.
type Snapshot struct {
	bufferID   ID
	revisionID RevisionID
	text       string
	lineStarts []ByteOffset // byte offset of the first byte of each line
}

func newSnapshot(bufferID ID, revisionID RevisionID, text string) *Snapshot {
	return &Snapshot{
		bufferID:   bufferID,
		revisionID: revisionID,
		text:       text,
		lineStarts: indexLines(text),
	}
}

// NewSnapshot creates a standalone snapshot from raw text, detached from any
// buffer. Useful for locating against content that is not open in a buffer.
func NewSnapshot(text string) *Snapshot {
	return newSnapshot("", 0, text)
}

// indexLines computes the byte offset of the start of every line.
// Line 0 always starts at offset 0, even for empty text.
func indexLines(text string) []ByteOffset {
	starts := []ByteOffset{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// BufferID returns the identity of the buffer this snapshot was taken from.
// It is empty for standalone snapshots.
func (s *Snapshot) BufferID() ID {
	return s.bufferID
}

// RevisionID returns the revision this snapshot captures.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// Text returns the full snapshot content.
func (s *Snapshot) Text() string {
	return s.text
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.text))
}

// IsEmpty returns true if the snapshot contains no text.
func (s *Snapshot) IsEmpty() bool {
	return len(s.text) == 0
}

// Slice returns the text in [start, end), clamped to the snapshot bounds.
func (s *Snapshot) Slice(start, end ByteOffset) string {
	start = s.ClampOffset(start)
	end = s.ClampOffset(end)
	if start >= end {
		return ""
	}
	return s.text[start:end]
}

// ClampOffset clamps an offset into the valid range [0, Len()].
func (s *Snapshot) ClampOffset(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > s.Len() {
		return s.Len()
	}
	return offset
}

// LineCount returns the number of lines.
// An empty snapshot has one (empty) line.
func (s *Snapshot) LineCount() uint32 {
	return uint32(len(s.lineStarts))
}

// LineStartOffset returns the byte offset of the start of a line.
// Lines past the end clamp to the snapshot length.
func (s *Snapshot) LineStartOffset(line uint32) ByteOffset {
	if int(line) >= len(s.lineStarts) {
		return s.Len()
	}
	return s.lineStarts[line]
}

// LineEndOffset returns the byte offset of the end of a line, before its
// newline terminator.
func (s *Snapshot) LineEndOffset(line uint32) ByteOffset {
	if int(line)+1 < len(s.lineStarts) {
		return s.lineStarts[line+1] - 1
	}
	return s.Len()
}

// LineText returns the text of a specific line, without its newline.
func (s *Snapshot) LineText(line uint32) string {
	return s.Slice(s.LineStartOffset(line), s.LineEndOffset(line))
}

// OffsetToPoint converts a byte offset to line/column.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) Point {
	offset = s.ClampOffset(offset)
	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	return Point{
		Line:   uint32(line),
		Column: uint32(offset - s.lineStarts[line]),
	}
}

// PointToOffset converts line/column to a byte offset.
// Points past the end of a line clamp to the line end; lines past the end of
// the snapshot clamp to the snapshot length.
func (s *Snapshot) PointToOffset(point Point) ByteOffset {
	if int(point.Line) >= len(s.lineStarts) {
		return s.Len()
	}
	offset := s.lineStarts[point.Line] + ByteOffset(point.Column)
	end := s.LineEndOffset(point.Line)
	if offset > end {
		return end
	}
	return offset
}

// ClampRow clamps a signed row index into [0, LineCount()-1].
func (s *Snapshot) ClampRow(row int) uint32 {
	if row < 0 {
		return 0
	}
	if row >= len(s.lineStarts) {
		return uint32(len(s.lineStarts) - 1)
	}
	return uint32(row)
}

// Lines returns the snapshot content split into lines, without terminators.
func (s *Snapshot) Lines() []string {
	return strings.Split(s.text, "\n")
}
