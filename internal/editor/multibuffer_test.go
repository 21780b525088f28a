package editor

import (
	"testing"

	"github.com/dshills/patchwork/internal/engine/buffer"
)

func anchoredRange(buf *buffer.Buffer, start, end buffer.ByteOffset) buffer.AnchorRange {
	return buf.AnchorRangeAt(start, end)
}

func TestPushExcerptKeepsSortedOrder(t *testing.T) {
	mb := NewMultibuffer("review")
	a := buffer.New("aaaa\nbbbb\ncccc\n", buffer.WithPath("/a.go"))
	b := buffer.New("dddd\neeee\n", buffer.WithPath("/b.go"))

	mb.PushExcerpt(b.ID(), "/b.go", anchoredRange(b, 0, 4))
	mb.PushExcerpt(a.ID(), "/a.go", anchoredRange(a, 10, 14))
	mb.PushExcerpt(a.ID(), "/a.go", anchoredRange(a, 0, 4))

	got := mb.Excerpts()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	if got[0].Path != "/a.go" || got[0].Range.Start.Offset != 0 {
		t.Errorf("excerpt 0 = %s@%d, want /a.go@0", got[0].Path, got[0].Range.Start.Offset)
	}
	if got[1].Path != "/a.go" || got[1].Range.Start.Offset != 10 {
		t.Errorf("excerpt 1 = %s@%d, want /a.go@10", got[1].Path, got[1].Range.Start.Offset)
	}
	if got[2].Path != "/b.go" {
		t.Errorf("excerpt 2 = %s, want /b.go", got[2].Path)
	}
}

func TestPushExcerptOrdersByResolvedPosition(t *testing.T) {
	mb := NewMultibuffer("review")
	buf := buffer.New("abcdefghij\n", buffer.WithPath("/a.go"))
	mb.SetResolver(func(_ buffer.ID, rng buffer.AnchorRange) buffer.Range {
		return buf.ResolveRange(rng)
	})

	// Anchored before the insertion, this range now resolves past it even
	// though its creation-time offsets are the smaller ones.
	late := anchoredRange(buf, 2, 4)
	if _, err := buf.Replace(0, 0, "xxxxxxxxxxxxxxxxxxxx"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	early := anchoredRange(buf, 10, 12)

	idLate := mb.PushExcerpt(buf.ID(), "/a.go", late)
	idEarly := mb.PushExcerpt(buf.ID(), "/a.go", early)

	got := mb.Excerpts()
	if len(got) != 2 {
		t.Fatalf("Len = %d, want 2", len(got))
	}
	if got[0].ID != idEarly || got[1].ID != idLate {
		t.Errorf("order = [%d, %d], want [%d, %d] (resolved positions)",
			got[0].ID, got[1].ID, idEarly, idLate)
	}
}

func TestExcerptIDsAreUnique(t *testing.T) {
	mb := NewMultibuffer("")
	buf := buffer.New("x\n")

	id1 := mb.PushExcerpt(buf.ID(), "/x", anchoredRange(buf, 0, 1))
	id2 := mb.PushExcerpt(buf.ID(), "/x", anchoredRange(buf, 0, 1))
	if id1 == id2 {
		t.Errorf("both pushes returned excerpt ID %d", id1)
	}
}

func TestRemoveExcerpts(t *testing.T) {
	mb := NewMultibuffer("")
	buf := buffer.New("one\ntwo\nthree\n", buffer.WithPath("/x"))

	id1 := mb.PushExcerpt(buf.ID(), "/x", anchoredRange(buf, 0, 3))
	id2 := mb.PushExcerpt(buf.ID(), "/x", anchoredRange(buf, 4, 7))

	mb.RemoveExcerpts(id1, ExcerptID(999))
	got := mb.Excerpts()
	if len(got) != 1 || got[0].ID != id2 {
		t.Errorf("Excerpts() = %v, want only %d", got, id2)
	}
}

func TestExcerptsFor(t *testing.T) {
	mb := NewMultibuffer("")
	a := buffer.New("a\n", buffer.WithPath("/a"))
	b := buffer.New("b\n", buffer.WithPath("/b"))

	mb.PushExcerpt(a.ID(), "/a", anchoredRange(a, 0, 1))
	mb.PushExcerpt(b.ID(), "/b", anchoredRange(b, 0, 1))

	got := mb.ExcerptsFor(a.ID())
	if len(got) != 1 || got[0].BufferID != a.ID() {
		t.Errorf("ExcerptsFor(a) = %v, want one excerpt of a", got)
	}
}

func TestTitle(t *testing.T) {
	mb := NewMultibuffer("first")
	if got := mb.Title(); got != "first" {
		t.Errorf("Title() = %q, want %q", got, "first")
	}
	mb.SetTitle("second")
	if got := mb.Title(); got != "second" {
		t.Errorf("Title() = %q, want %q", got, "second")
	}
}

func TestClear(t *testing.T) {
	mb := NewMultibuffer("")
	buf := buffer.New("x\n")
	mb.PushExcerpt(buf.ID(), "/x", anchoredRange(buf, 0, 1))

	mb.Clear()
	if got := mb.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}
