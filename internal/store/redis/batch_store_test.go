package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

func testDocs(n int) []actions.Document {
	docs := make([]actions.Document, n)
	for i := range docs {
		docs[i] = actions.Document{
			Identifier: fmt.Sprintf("EO-%05d", 14000+i),
			Type:       actions.TypeExecutiveOrder,
			Title:      fmt.Sprintf("Executive Order %d", 14000+i),
			Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			URL:        fmt.Sprintf("https://example.gov/eo-%d/", 14000+i),
		}
	}
	return docs
}

// countingClient counts pipeline requests and can arm a failure before a
// given request number.
type countingClient struct {
	inner     *goredis.Client
	mr        *miniredis.Miniredis
	pipelines int
	failAt    int
}

func (c *countingClient) Pipeline() goredis.Pipeliner {
	c.pipelines++
	if c.failAt > 0 && c.pipelines == c.failAt {
		c.mr.SetError("FORCED FAILURE")
	}
	return c.inner.Pipeline()
}

func newTestClient(t *testing.T) *countingClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &countingClient{inner: client, mr: mr}
}

func TestPutBatch_ChunksWrites(t *testing.T) {
	client := newTestClient(t)
	store, err := New(client, 25, zap.NewNop())
	require.NoError(t, err)

	err = store.PutBatch(context.Background(), testDocs(57))
	require.NoError(t, err)
	require.Equal(t, 3, client.pipelines)
	require.Len(t, client.mr.Keys(), 57)
	require.True(t, client.mr.Exists("action:EO-14000"))
	require.True(t, client.mr.Exists("action:EO-14056"))
}

func TestPutBatch_ChunkFailureIdentifiesChunk(t *testing.T) {
	client := newTestClient(t)
	client.failAt = 2
	store, err := New(client, 25, zap.NewNop())
	require.NoError(t, err)

	err = store.PutBatch(context.Background(), testDocs(57))
	require.Error(t, err)
	require.Contains(t, err.Error(), "write chunk 2 (25 documents)")
	// Chunk 1 stays written; the failure does not roll it back.
	require.Len(t, client.mr.Keys(), 25)
}

func TestPutBatch_EmptyBatchIsNoop(t *testing.T) {
	client := newTestClient(t)
	store, err := New(client, 25, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.PutBatch(context.Background(), nil))
	require.Zero(t, client.pipelines)
}

func TestNew_RequiresClient(t *testing.T) {
	t.Parallel()

	_, err := New(nil, 25, zap.NewNop())
	require.Error(t, err)
}
