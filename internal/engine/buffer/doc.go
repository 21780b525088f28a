// Package buffer provides a thread-safe text buffer with stable anchors.
// It is the text-storage primitive the patch engine works against.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Immutable snapshots with offset/point conversion backed by a
//     precomputed line index
//   - Anchors: position handles that remain resolvable across later edits
//   - Branch buffers: derived, editable copies of a source buffer used to
//     stage edits without touching the source
//   - Batched edit application with revision tracking
//
// Position Types:
//
//   - ByteOffset: raw byte position in the buffer
//   - Point: line and column position (0-indexed, column in bytes)
//
// Anchors record the revision they were created at. Resolving an anchor
// replays the buffer's retained change log forward from that revision, so
// anchors stay meaningful while the buffer is edited concurrently.
package buffer
