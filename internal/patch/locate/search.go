// Package locate finds the best approximate match for a text snippet inside
// a buffer snapshot. The search is a byte-level alignment biased to preserve
// exact non-whitespace content while tolerating reflowed whitespace, and the
// result is snapped to whole lines so edits always replace complete lines.
package locate

import (
	"github.com/dshills/patchwork/internal/engine/buffer"
)

// Alignment costs. Deleting a query byte (content the proposal expected but
// the buffer lacks) is far more expensive than skipping a buffer byte, and
// whitespace on either side is nearly free.
const (
	InsertionCost           = 3
	DeletionCost            = 10
	WhitespaceInsertionCost = 1
	WhitespaceDeletionCost  = 1
)

// Searcher locates a query inside buffer content.
// It is an interface so callers can instrument or replace the search.
type Searcher interface {
	Search(query, content string) buffer.Range
}

// DPSearcher implements Searcher with free-start, anchored-end substring
// alignment: the query must be fully consumed, but any buffer prefix may be
// skipped at no cost.
type DPSearcher struct{}

// NewSearcher creates the default searcher.
func NewSearcher() *DPSearcher {
	return &DPSearcher{}
}

var _ Searcher = (*DPSearcher)(nil)

// Traceback directions recorded while filling the cost matrix.
const (
	dirDiagonal uint8 = iota // consume one query byte and one buffer byte
	dirUp                    // skip one query byte
	dirLeft                  // skip one buffer byte
)

// Search returns the byte range of the best match for query in content.
// The result is deterministic: cost ties are broken toward the earliest end
// column, and the traceback prefers Diagonal over Up over Left.
func (s *DPSearcher) Search(query, content string) buffer.Range {
	q := len(query)
	b := len(content)

	cols := b + 1
	dirs := make([]uint8, (q+1)*cols)

	// Row 0 is zero for every column: the alignment is free to start
	// anywhere in the buffer.
	prev := make([]uint32, cols)
	cur := make([]uint32, cols)
	for j := range dirs[:cols] {
		dirs[j] = dirLeft
	}

	for i := 1; i <= q; i++ {
		qb := query[i-1]
		delCost := deletionCost(qb)

		cur[0] = prev[0] + delCost
		dirs[i*cols] = dirUp

		for j := 1; j <= b; j++ {
			bb := content[j-1]
			insCost := insertionCost(bb)

			diag := prev[j-1]
			if qb != bb {
				diag += delCost + insCost
			}
			up := prev[j] + delCost
			left := cur[j-1] + insCost

			cost := diag
			dir := dirDiagonal
			if up < cost {
				cost = up
				dir = dirUp
			}
			if left < cost {
				cost = left
				dir = dirLeft
			}
			cur[j] = cost
			dirs[i*cols+j] = dir
		}
		prev, cur = cur, prev
	}

	// The query must be fully consumed; any end column is allowed. Pick the
	// cheapest end, earliest column on ties.
	last := prev // rows were swapped after the final iteration
	bestCol := 0
	bestCost := last[0]
	for j := 1; j <= b; j++ {
		if last[j] < bestCost {
			bestCost = last[j]
			bestCol = j
		}
	}

	// Trace back to the start column.
	i, j := q, bestCol
	for i > 0 {
		switch dirs[i*cols+j] {
		case dirDiagonal:
			i--
			j--
		case dirUp:
			i--
		case dirLeft:
			j--
		}
	}

	return buffer.Range{Start: buffer.ByteOffset(j), End: buffer.ByteOffset(bestCol)}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func insertionCost(b byte) uint32 {
	if isWhitespace(b) {
		return WhitespaceInsertionCost
	}
	return InsertionCost
}

func deletionCost(b byte) uint32 {
	if isWhitespace(b) {
		return WhitespaceDeletionCost
	}
	return DeletionCost
}
