package documents

import "context"

// Repo defines persistence operations for the document registry.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	// ListReadable returns documents owned by or shared with the given
	// identity, newest first, honoring limit/offset.
	ListReadable(ctx context.Context, userID string, limit, offset int) ([]Document, error)
}
