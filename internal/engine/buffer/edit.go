package buffer

import "fmt"

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: offset, End: offset}, NewText: text}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(start, end ByteOffset) Edit {
	return Edit{Range: Range{Start: start, End: end}}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range)
	}
	return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// EditResult contains information about an applied edit.
type EditResult struct {
	OldRange Range  // The original range that was modified
	NewRange Range  // The resulting range after the edit
	OldText  string // The text that was replaced
}

// appliedEdit records one edit of a committed batch for anchor resolution.
// Ranges are in the coordinates of the text before the whole batch.
type appliedEdit struct {
	oldRange Range
	newLen   ByteOffset
}

func (a appliedEdit) delta() ByteOffset {
	return a.newLen - a.oldRange.Len()
}

// changeSet is one committed batch of edits, ascending by oldRange.Start.
type changeSet struct {
	revision RevisionID // revision after this batch was applied
	edits    []appliedEdit
}

// transform maps an offset from the coordinates before this batch to the
// coordinates after it. Offsets inside a replaced region collapse toward the
// given bias: left bias sticks to the new start, right bias to the new end.
func (cs changeSet) transform(offset ByteOffset, bias Bias) ByteOffset {
	var delta ByteOffset
	for _, e := range cs.edits {
		if e.oldRange.End <= offset {
			if e.oldRange.End == offset && e.oldRange.IsEmpty() && bias == BiasLeft {
				// Left-biased anchors stay before text inserted at their position.
				return offset + delta
			}
			delta += e.delta()
			continue
		}
		if e.oldRange.Start >= offset {
			break
		}
		// Offset falls inside the replaced region.
		if bias == BiasLeft {
			return e.oldRange.Start + delta
		}
		return e.oldRange.Start + delta + e.newLen
	}
	return offset + delta
}
