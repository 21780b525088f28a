package buffer

import (
	"errors"
	"testing"
)

func TestSnapshotOffsetPointRoundTrip(t *testing.T) {
	snap := NewSnapshot("one\ntwo\nthree\n")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{Line: 0, Column: 0}},
		{3, Point{Line: 0, Column: 3}},
		{4, Point{Line: 1, Column: 0}},
		{7, Point{Line: 1, Column: 3}},
		{8, Point{Line: 2, Column: 0}},
		{13, Point{Line: 2, Column: 5}},
		{14, Point{Line: 3, Column: 0}},
	}
	for _, tt := range tests {
		got := snap.OffsetToPoint(tt.offset)
		if got != tt.want {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.want)
		}
		back := snap.PointToOffset(got)
		if back != tt.offset {
			t.Errorf("PointToOffset(%v) = %d, want %d", got, back, tt.offset)
		}
	}
}

func TestSnapshotLineBounds(t *testing.T) {
	snap := NewSnapshot("one\ntwo\nthree")

	if got := snap.LineCount(); got != 3 {
		t.Fatalf("LineCount() = %d, want 3", got)
	}
	if got := snap.LineStartOffset(1); got != 4 {
		t.Errorf("LineStartOffset(1) = %d, want 4", got)
	}
	if got := snap.LineEndOffset(1); got != 7 {
		t.Errorf("LineEndOffset(1) = %d, want 7", got)
	}
	// Final line has no terminator.
	if got := snap.LineEndOffset(2); got != 13 {
		t.Errorf("LineEndOffset(2) = %d, want 13", got)
	}
	if got := snap.LineText(2); got != "three" {
		t.Errorf("LineText(2) = %q, want %q", got, "three")
	}
	// Past-the-end lines clamp.
	if got := snap.LineStartOffset(99); got != snap.Len() {
		t.Errorf("LineStartOffset(99) = %d, want %d", got, snap.Len())
	}
}

func TestSnapshotClampRow(t *testing.T) {
	snap := NewSnapshot("a\nb\nc")
	if got := snap.ClampRow(-3); got != 0 {
		t.Errorf("ClampRow(-3) = %d, want 0", got)
	}
	if got := snap.ClampRow(1); got != 1 {
		t.Errorf("ClampRow(1) = %d, want 1", got)
	}
	if got := snap.ClampRow(42); got != 2 {
		t.Errorf("ClampRow(42) = %d, want 2", got)
	}
}

func TestBufferApplyEdits(t *testing.T) {
	buf := New("one\ntwo\nthree\n")

	_, err := buf.ApplyEdits([]Edit{
		{Range: Range{Start: 4, End: 7}, NewText: "TWO"},
		{Range: Range{Start: 8, End: 13}, NewText: "four"},
	})
	if err != nil {
		t.Fatalf("ApplyEdits() error: %v", err)
	}
	if got, want := buf.Text(), "one\nTWO\nfour\n"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestBufferApplyEditsInsertAndDelete(t *testing.T) {
	buf := New("abc")

	_, err := buf.ApplyEdits([]Edit{
		NewInsert(0, ">>"),
		NewDelete(1, 2),
	})
	if err != nil {
		t.Fatalf("ApplyEdits() error: %v", err)
	}
	if got, want := buf.Text(), ">>ac"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestBufferApplyEditsRejectsOverlap(t *testing.T) {
	buf := New("abcdef")

	_, err := buf.ApplyEdits([]Edit{
		{Range: Range{Start: 0, End: 3}, NewText: "x"},
		{Range: Range{Start: 2, End: 5}, NewText: "y"},
	})
	if !errors.Is(err, ErrEditsOverlap) {
		t.Errorf("ApplyEdits() error = %v, want ErrEditsOverlap", err)
	}
}

func TestBufferApplyEditsRejectsOutOfRange(t *testing.T) {
	buf := New("ab")

	_, err := buf.ApplyEdits([]Edit{{Range: Range{Start: 0, End: 10}, NewText: "x"}})
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("ApplyEdits() error = %v, want ErrOffsetOutOfRange", err)
	}
}

func TestAnchorTracksInsertionBefore(t *testing.T) {
	buf := New("hello world")

	a := buf.AnchorBefore(6) // at 'w'
	if _, err := buf.Replace(0, 0, ">>> "); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if got := buf.ResolveAnchor(a); got != 10 {
		t.Errorf("ResolveAnchor() = %d, want 10", got)
	}
}

func TestAnchorBiasAtInsertionPoint(t *testing.T) {
	buf := New("ab")

	left := buf.AnchorBefore(1)
	right := buf.AnchorAfter(1)
	if _, err := buf.Replace(1, 1, "XY"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	if got := buf.ResolveAnchor(left); got != 1 {
		t.Errorf("left-biased anchor = %d, want 1", got)
	}
	if got := buf.ResolveAnchor(right); got != 3 {
		t.Errorf("right-biased anchor = %d, want 3", got)
	}
}

func TestAnchorRangeGrowsWithInsertedText(t *testing.T) {
	buf := New("one two three")

	ar := buf.AnchorRangeAt(4, 7) // "two"
	if _, err := buf.Replace(4, 4, "2-"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if _, err := buf.Replace(9, 9, "-2"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	r := buf.ResolveRange(ar)
	if got := buf.Snapshot().Slice(r.Start, r.End); got != "2-two-2" {
		t.Errorf("resolved range text = %q, want %q", got, "2-two-2")
	}
}

func TestAnchorSurvivesMultipleRevisions(t *testing.T) {
	buf := New("a\nb\nc\n")

	a := buf.AnchorBefore(4) // start of "c"
	if _, err := buf.Replace(0, 0, "z\n"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if _, err := buf.Replace(2, 4, "bee\n"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	got := buf.ResolveAnchor(a)
	if text := buf.Snapshot().Slice(got, got+1); text != "c" {
		t.Errorf("anchor resolved to %d (%q), want start of c", got, text)
	}
}

func TestBranchIsolation(t *testing.T) {
	src := New("original")
	br := src.Branch()

	if !br.IsBranch() {
		t.Fatal("IsBranch() = false, want true")
	}
	if br.SourceID() != src.ID() {
		t.Errorf("SourceID() = %v, want %v", br.SourceID(), src.ID())
	}

	br.SetText("changed")
	if got := src.Text(); got != "original" {
		t.Errorf("source Text() = %q, want %q", got, "original")
	}
	if got := br.Text(); got != "changed" {
		t.Errorf("branch Text() = %q, want %q", got, "changed")
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	buf := New("before")
	snap := buf.Snapshot()

	buf.SetText("after")
	if got := snap.Text(); got != "before" {
		t.Errorf("snapshot Text() = %q, want %q", got, "before")
	}
}
