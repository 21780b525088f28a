package buffer

import "fmt"

// Bias controls which way an anchor leans when text is inserted or replaced
// at its exact position.
type Bias uint8

const (
	// BiasLeft anchors stick to the text before them.
	BiasLeft Bias = iota

	// BiasRight anchors stick to the text after them.
	BiasRight
)

// String returns a human-readable representation of the bias.
func (b Bias) String() string {
	if b == BiasLeft {
		return "left"
	}
	return "right"
}

// Anchor is a stable position handle into a buffer. It records the revision
// it was created at; resolving replays later edits to find the current
// offset. Anchors remain valid for as long as the buffer retains its change
// log, which it does for its whole lifetime.
type Anchor struct {
	BufferID ID
	Revision RevisionID
	Offset   ByteOffset
	Bias     Bias
}

// String returns a human-readable representation of the anchor.
func (a Anchor) String() string {
	return fmt.Sprintf("anchor(%d@r%d,%s)", a.Offset, a.Revision, a.Bias)
}

// AnchorRange is a pair of anchors delimiting a region of a buffer.
// Start is conventionally left-biased and End right-biased so that the
// region grows to include text inserted at either boundary.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// String returns a human-readable representation of the range.
func (r AnchorRange) String() string {
	return fmt.Sprintf("[%s:%s)", r.Start, r.End)
}
