// Package diff computes line-based diffs between two versions of the same
// logical text and reports them as byte-range hunks. The hunk shape is what
// the patch resolver's drift remap consumes: sorted, non-overlapping ranges
// in old coordinates paired with their replacement ranges in new coordinates.
package diff

import (
	"strings"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

// Hunk is one changed region. OldRange addresses the old text, NewRange the
// new text. Ranges cover whole lines including their terminators and are
// sorted ascending; a pure insertion has an empty OldRange, a pure deletion
// an empty NewRange.
type Hunk struct {
	OldRange buffer.Range
	NewRange buffer.Range
}

// Delta returns the net length change this hunk applies.
func (h Hunk) Delta() buffer.ByteOffset {
	return h.NewRange.Len() - h.OldRange.Len()
}

// Strings computes the hunks transforming oldText into newText.
func Strings(oldText, newText string) []Hunk {
	if oldText == newText {
		return nil
	}

	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")
	ops := myers(oldLines, newLines)

	oldStarts := lineStarts(oldLines)
	newStarts := lineStarts(newLines)
	oldLen := buffer.ByteOffset(len(oldText))
	newLen := buffer.ByteOffset(len(newText))

	var hunks []Hunk
	var cur *hunkLines
	for _, op := range ops {
		switch op.kind {
		case opEqual:
			if cur != nil {
				hunks = append(hunks, cur.toHunk(oldStarts, newStarts, oldLen, newLen))
				cur = nil
			}
		case opDelete:
			if cur == nil {
				cur = &hunkLines{oldStart: op.oldIndex, oldEnd: op.oldIndex, newStart: op.newIndex, newEnd: op.newIndex}
			}
			cur.oldEnd = op.oldIndex + 1
		case opInsert:
			if cur == nil {
				cur = &hunkLines{oldStart: op.oldIndex, oldEnd: op.oldIndex, newStart: op.newIndex, newEnd: op.newIndex}
			}
			cur.newEnd = op.newIndex + 1
		}
	}
	if cur != nil {
		hunks = append(hunks, cur.toHunk(oldStarts, newStarts, oldLen, newLen))
	}
	return hunks
}

// hunkLines accumulates a contiguous changed region in line coordinates.
type hunkLines struct {
	oldStart, oldEnd int
	newStart, newEnd int
}

func (h *hunkLines) toHunk(oldStarts, newStarts []buffer.ByteOffset, oldLen, newLen buffer.ByteOffset) Hunk {
	return Hunk{
		OldRange: lineSpan(oldStarts, h.oldStart, h.oldEnd, oldLen),
		NewRange: lineSpan(newStarts, h.newStart, h.newEnd, newLen),
	}
}

// lineStarts returns the byte offset of the start of each line, plus one
// trailing entry past the end.
func lineStarts(lines []string) []buffer.ByteOffset {
	starts := make([]buffer.ByteOffset, len(lines)+1)
	var off buffer.ByteOffset
	for i, line := range lines {
		starts[i] = off
		off += buffer.ByteOffset(len(line)) + 1
	}
	starts[len(lines)] = off
	return starts
}

// lineSpan converts a half-open line interval into a byte range, clamped so
// the final line's missing terminator does not overrun the text.
func lineSpan(starts []buffer.ByteOffset, startLine, endLine int, textLen buffer.ByteOffset) buffer.Range {
	start := starts[startLine]
	if start > textLen {
		start = textLen
	}
	end := starts[endLine]
	if end > textLen {
		end = textLen
	}
	return buffer.Range{Start: start, End: end}
}

type opKind uint8

const (
	opEqual opKind = iota
	opInsert
	opDelete
)

type editOp struct {
	kind     opKind
	oldIndex int
	newIndex int
}

// myers implements the Myers shortest-edit-script algorithm over lines.
func myers(oldLines, newLines []string) []editOp {
	n := len(oldLines)
	m := len(newLines)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]editOp, m)
		for i := 0; i < m; i++ {
			ops[i] = editOp{kind: opInsert, newIndex: i}
		}
		return ops
	}
	if m == 0 {
		ops := make([]editOp, n)
		for i := 0; i < n; i++ {
			ops[i] = editOp{kind: opDelete, oldIndex: i}
		}
		return ops
	}

	maxD := n + m
	offset := maxD
	v := make([]int, 2*maxD+1)
	v[offset+1] = 0

	var trace [][]int

outer:
	for d := 0; d <= maxD; d++ {
		vCopy := make([]int, len(v))
		copy(vCopy, v)
		trace = append(trace, vCopy)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k

			for x < n && y < m && oldLines[x] == newLines[y] {
				x++
				y++
			}
			v[offset+k] = x

			if x >= n && y >= m {
				vFinal := make([]int, len(v))
				copy(vFinal, v)
				trace = append(trace, vFinal)
				break outer
			}
		}
	}

	return backtrack(trace, n, m, offset)
}

// backtrack reconstructs the edit script from the recorded V vectors.
func backtrack(trace [][]int, n, m, offset int) []editOp {
	if len(trace) == 0 {
		return nil
	}

	x := n
	y := m
	var ops []editOp

	for d := len(trace) - 2; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, editOp{kind: opEqual, oldIndex: x, newIndex: y})
		}
		if d > 0 {
			if x > prevX {
				x--
				ops = append(ops, editOp{kind: opDelete, oldIndex: x, newIndex: y})
			} else if y > prevY {
				y--
				ops = append(ops, editOp{kind: opInsert, oldIndex: x, newIndex: y})
			}
		}
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
