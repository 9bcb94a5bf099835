package actions

import (
	"context"
	"time"
)

// Fetcher retrieves a fully settled page for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// DocumentStore is the relational persistence surface the pipeline needs:
// the known-key read at the start of a cycle and the transactional insert
// at the end of it.
type DocumentStore interface {
	KnownKeys(ctx context.Context) (KeySet, error)
	InsertNew(ctx context.Context, docs []Document) (int, error)
}

// BatchStore performs chunked bulk writes against a key-value store.
type BatchStore interface {
	PutBatch(ctx context.Context, docs []Document) error
}

// BlobStore writes raw page snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes cycle-completion events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (injected for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
