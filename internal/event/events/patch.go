// Package events defines the typed payloads the patch engine publishes.
package events

import (
	"github.com/dshills/patchwork/internal/event"
	"github.com/dshills/patchwork/internal/patch"
)

// Topics published by the patch store.
const (
	TopicPatchUpdated event.Topic = "patch.updated"
	TopicPatchRemoved event.Topic = "patch.removed"
)

// PatchUpdated is published after a patch is inserted or updated and its
// relocation has been committed.
type PatchUpdated struct {
	ID patch.ID
}

// PatchRemoved is published after a patch is removed from the store.
type PatchRemoved struct {
	ID patch.ID
}
