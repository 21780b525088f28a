// Package store owns patch state: it registers proposals, keeps their edit
// locations fresh as proposals are revised, and resolves located edits
// against live buffers into grouped, anchored results.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/event"
	"github.com/dshills/patchwork/internal/event/events"
	"github.com/dshills/patchwork/internal/patch"
	"github.com/dshills/patchwork/internal/patch/locate"
	"github.com/dshills/patchwork/internal/project/filestore"
	"github.com/dshills/patchwork/internal/task"
)

// ErrPatchNotFound is returned for operations on unknown patch IDs.
var ErrPatchNotFound = errors.New("patch not found")

// DefaultContextLines is the number of rows of context kept around each
// edit group.
const DefaultContextLines = 5

// entry is the store's record for one patch.
type entry struct {
	patch      patch.Patch
	located    *patch.LocatedPatch
	generation uint64
	done       chan struct{} // closed when the current generation's relocation finishes
}

// Store is the patch registry and resolution engine.
// All public methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	patches map[patch.ID]*entry
	nextID  patch.ID

	files        *filestore.FileStore
	pool         *task.Pool
	bus          *event.Bus
	searcher     locate.Searcher
	contextLines int
}

// Option configures a Store.
type Option func(*Store)

// WithSearcher replaces the default locator, e.g. to instrument it.
func WithSearcher(s locate.Searcher) Option {
	return func(st *Store) { st.searcher = s }
}

// WithContextLines sets the rows of context around each edit group.
func WithContextLines(n int) Option {
	return func(st *Store) {
		if n >= 0 {
			st.contextLines = n
		}
	}
}

// New creates a Store.
func New(files *filestore.FileStore, pool *task.Pool, bus *event.Bus, opts ...Option) *Store {
	s := &Store{
		patches:      make(map[patch.ID]*entry),
		files:        files,
		pool:         pool,
		bus:          bus,
		searcher:     locate.NewSearcher(),
		contextLines: DefaultContextLines,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert registers a patch and starts locating its edits in the background.
func (s *Store) Insert(p patch.Patch) patch.ID {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	e := &entry{
		patch:      p,
		generation: 1,
		done:       make(chan struct{}),
	}
	s.patches[id] = e
	s.mu.Unlock()

	go s.relocate(id, patch.Patch{}, nil, p, 1, e.done)
	return id
}

// Update replaces a patch's content and starts an incremental relocation.
// The superseded relocation, if still running, is not cancelled; its result
// is discarded by generation stamping when it completes.
func (s *Store) Update(id patch.ID, p patch.Patch) error {
	s.mu.Lock()
	e, ok := s.patches[id]
	if !ok {
		s.mu.Unlock()
		return ErrPatchNotFound
	}
	prev := e.patch
	prevLocated := e.located
	e.patch = p
	e.generation++
	gen := e.generation
	e.done = make(chan struct{})
	done := e.done
	s.mu.Unlock()

	go s.relocate(id, prev, prevLocated, p, gen, done)
	return nil
}

// Remove deletes a patch. Removing an unknown ID is a no-op.
func (s *Store) Remove(id patch.ID) {
	s.mu.Lock()
	_, ok := s.patches[id]
	delete(s.patches, id)
	s.mu.Unlock()

	if ok && s.bus != nil {
		s.bus.Publish(events.TopicPatchRemoved, events.PatchRemoved{ID: id})
	}
}

// Get returns the current content of a patch.
func (s *Store) Get(id patch.ID) (patch.Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.patches[id]
	if !ok {
		return patch.Patch{}, false
	}
	return e.patch, true
}

// Located returns the current located form of a patch without waiting for
// an in-flight relocation.
func (s *Store) Located(id patch.ID) (*patch.LocatedPatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.patches[id]
	if !ok || e.located == nil {
		return nil, false
	}
	return e.located, true
}

// relocate computes a new LocatedPatch for the given revision and commits it
// if the patch's generation still matches. It reuses prior locations for
// edits that survived the revision unchanged and searches only for the rest.
func (s *Store) relocate(id patch.ID, prev patch.Patch, prevLocated *patch.LocatedPatch, next patch.Patch, gen uint64, done chan struct{}) {
	defer close(done)
	ctx := context.Background()

	out := &patch.LocatedPatch{Input: next}
	for ix, edit := range next.Edits {
		snap, err := s.snapshotFor(ctx, edit, prevLocated, out)
		if err != nil {
			slog.Warn("relocation failed for edit, dropping it",
				"patch", id, "edit", ix, "path", edit.Path, "err", err)
			continue
		}
		bucket := out.Bucket(edit.Path, snap)

		if located, ok := reusableLocation(edit, prev, prevLocated); ok {
			located.InputIndex = ix
			bucket.Insert(located)
			continue
		}

		located, err := s.search(ctx, edit, bucket.Snapshot)
		if err != nil {
			slog.Warn("relocation failed for edit, dropping it",
				"patch", id, "edit", ix, "path", edit.Path, "err", err)
			continue
		}
		located.InputIndex = ix
		bucket.Insert(located)
	}

	s.mu.Lock()
	e, ok := s.patches[id]
	if !ok || e.generation != gen {
		// A newer revision superseded this computation; discard it.
		s.mu.Unlock()
		return
	}
	e.located = out
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.TopicPatchUpdated, events.PatchUpdated{ID: id})
	}
}

// snapshotFor finds the content snapshot an edit should be located against:
// the bucket already started for its path, the previous revision's snapshot
// for the same path, or a fresh load from the file service.
func (s *Store) snapshotFor(ctx context.Context, edit patch.Edit, prevLocated, out *patch.LocatedPatch) (*buffer.Snapshot, error) {
	if bucket, ok := out.Lookup(edit.Path); ok {
		return bucket.Snapshot, nil
	}
	if bucket, ok := prevLocated.Lookup(edit.Path); ok {
		return bucket.Snapshot, nil
	}

	// Load off the worker pool so heavy file I/O stays off the caller.
	type result struct {
		snap *buffer.Snapshot
		err  error
	}
	ch, err := task.Await(ctx, s.pool, func() result {
		buf, err := s.files.OpenOrCreate(ctx, edit.Path)
		if err != nil {
			return result{err: err}
		}
		return result{snap: buf.Snapshot()}
	})
	if err != nil {
		return nil, err
	}
	res := <-ch
	return res.snap, res.err
}

// reusableLocation looks for a structurally identical edit in the previous
// revision and, if its location was computed, adopts it verbatim.
func reusableLocation(edit patch.Edit, prev patch.Patch, prevLocated *patch.LocatedPatch) (patch.LocatedEdit, bool) {
	if prevLocated == nil {
		return patch.LocatedEdit{}, false
	}
	for j, prevEdit := range prev.Edits {
		if !edit.Equal(prevEdit) {
			continue
		}
		bucket, ok := prevLocated.Lookup(edit.Path)
		if !ok {
			continue
		}
		if located, ok := bucket.FindByInput(j); ok {
			return located, true
		}
	}
	return patch.LocatedEdit{}, false
}

// search runs the locator for one edit on the worker pool and awaits it.
func (s *Store) search(ctx context.Context, edit patch.Edit, snap *buffer.Snapshot) (patch.LocatedEdit, error) {
	ch, err := task.Await(ctx, s.pool, func() patch.LocatedEdit {
		rng, newText, description := locate.Kind(edit.Kind, snap, s.searcher)
		return patch.LocatedEdit{
			Range:       rng,
			NewText:     newText,
			Description: description,
		}
	})
	if err != nil {
		return patch.LocatedEdit{}, err
	}
	return <-ch, nil
}
