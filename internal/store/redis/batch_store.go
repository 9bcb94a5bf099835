// Package redis provides the key-value batch store for canonical documents.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

const keyPrefix = "action:"

// DefaultChunkSize is the bulk-write request limit imposed by the store.
const DefaultChunkSize = 25

// pipeliner is the subset of redis.Client the store needs; tests substitute
// a counting/failing wrapper.
type pipeliner interface {
	Pipeline() redis.Pipeliner
}

// BatchStore writes documents in fixed-size pipelined chunks. Each chunk is
// one request; a chunk failure leaves previously submitted chunks in place
// and the error identifies the failing chunk.
type BatchStore struct {
	client    pipeliner
	chunkSize int
	logger    *zap.Logger
}

// New builds a BatchStore around an existing Redis client.
func New(client pipeliner, chunkSize int, logger *zap.Logger) (*BatchStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &BatchStore{
		client:    client,
		chunkSize: chunkSize,
		logger:    logger,
	}, nil
}

// PutBatch writes all documents, one pipelined request per chunk.
func (s *BatchStore) PutBatch(ctx context.Context, docs []actions.Document) error {
	for i := 0; i < len(docs); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[i:end]
		chunkIndex := i/s.chunkSize + 1

		if err := s.writeChunk(ctx, chunk); err != nil {
			s.logger.Error("chunk write failed",
				zap.Int("chunk", chunkIndex),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			return fmt.Errorf("write chunk %d (%d documents): %w", chunkIndex, len(chunk), err)
		}
	}
	return nil
}

func (s *BatchStore) writeChunk(ctx context.Context, chunk []actions.Document) error {
	pipe := s.client.Pipeline()
	for _, doc := range chunk {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", doc.Identifier, err)
		}
		pipe.Set(ctx, keyPrefix+doc.Identifier, data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}
