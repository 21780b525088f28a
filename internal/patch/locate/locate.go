package locate

import (
	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/patch"
)

// ResolveLocation searches for query in the snapshot and expands the match
// to whole-line boundaries.
func ResolveLocation(snap *buffer.Snapshot, query string, s Searcher) buffer.Range {
	r := s.Search(query, snap.Text())

	start := snap.OffsetToPoint(r.Start)
	end := snap.OffsetToPoint(r.End)
	return buffer.Range{
		Start: snap.LineStartOffset(start.Line),
		End:   snap.LineEndOffset(end.Line),
	}
}

// Kind locates one edit kind within a snapshot, returning the target range,
// the replacement text, and the edit's description.
//
// Create targets the whole buffer. The insert kinds collapse to a zero-width
// range at the located anchor's boundary, carrying a separating newline in
// their text. Delete consumes the matched lines together with their
// terminator so no blank line is left behind.
func Kind(k patch.Kind, snap *buffer.Snapshot, s Searcher) (buffer.Range, string, string) {
	switch k := k.(type) {
	case patch.Create:
		return buffer.Range{Start: 0, End: snap.Len()}, k.NewText, k.Description

	case patch.Update:
		r := ResolveLocation(snap, k.OldText, s)
		return r, k.NewText, k.Description

	case patch.InsertBefore:
		r := ResolveLocation(snap, k.OldText, s)
		return buffer.Range{Start: r.Start, End: r.Start}, k.NewText + "\n", k.Description

	case patch.InsertAfter:
		r := ResolveLocation(snap, k.OldText, s)
		return buffer.Range{Start: r.End, End: r.End}, "\n" + k.NewText, k.Description

	case patch.Delete:
		r := ResolveLocation(snap, k.OldText, s)
		if snap.Slice(r.End, r.End+1) == "\n" {
			r.End++
		} else if r.Start > 0 && snap.Slice(r.Start-1, r.Start) == "\n" {
			// Last line of the file: take the preceding terminator instead.
			r.Start--
		}
		return r, "", ""

	default:
		// Kind is a closed set; reaching here is a programming error.
		return buffer.Range{}, "", ""
	}
}
