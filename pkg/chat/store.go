package chat

import "context"

// Store is the persistence boundary for the conversation snapshot.
// Implementations persist whole snapshots only; there is no partial or
// incremental write path. Load returns an empty slice, not an error,
// when nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) ([]*Conversation, error)
	Save(ctx context.Context, conversations []*Conversation) error
	Clear(ctx context.Context) error
}
