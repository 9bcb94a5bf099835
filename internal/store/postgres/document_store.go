// Package postgres provides the relational document store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// DocumentStore persists canonical documents and their label associations.
type DocumentStore struct {
	pool   pool
	logger *zap.Logger
}

// NewDocumentStore connects a pool using the provided config. The pool is
// an explicit dependency owned by the composition root; there is no
// process-wide client singleton.
func NewDocumentStore(ctx context.Context, cfg Config, logger *zap.Logger) (*DocumentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DocumentStore{pool: p, logger: logger}, nil
}

// NewDocumentStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewDocumentStoreWithPool(p pool, logger *zap.Logger) (*DocumentStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &DocumentStore{pool: p, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *DocumentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// KnownKeys reads the full url/identifier key set. The pipeline calls this
// once near the start of a cycle and uses it for the whole cycle's dedup
// decision.
func (s *DocumentStore) KnownKeys(ctx context.Context) (actions.KeySet, error) {
	rows, err := s.pool.Query(ctx, `SELECT url, identifier FROM documents`)
	if err != nil {
		return actions.KeySet{}, fmt.Errorf("query known keys: %w", err)
	}
	defer rows.Close()

	keys := actions.NewKeySet()
	for rows.Next() {
		var url, identifier string
		if err := rows.Scan(&url, &identifier); err != nil {
			return actions.KeySet{}, fmt.Errorf("scan known key row: %w", err)
		}
		keys.URLs[url] = struct{}{}
		keys.Identifiers[identifier] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return actions.KeySet{}, fmt.Errorf("iterate known keys: %w", err)
	}
	return keys, nil
}

// InsertNew writes the batch inside a single transaction so readers never
// observe a document without its category/agency associations. Either all
// documents for the run commit or none do.
func (s *DocumentStore) InsertNew(ctx context.Context, docs []actions.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inserted := 0
	for _, doc := range docs {
		docID, err := s.insertDocument(ctx, tx, doc)
		if err != nil {
			return 0, err
		}
		if err := s.attachLabels(ctx, tx, docID, "categories", "document_categories", "category_id", doc.Categories); err != nil {
			return 0, err
		}
		if err := s.attachLabels(ctx, tx, docID, "agencies", "document_agencies", "agency_id", doc.Agencies); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert transaction: %w", err)
	}
	s.logger.Info("documents persisted", zap.Int("count", inserted))
	return inserted, nil
}

func (s *DocumentStore) insertDocument(ctx context.Context, tx pgx.Tx, doc actions.Document) (int64, error) {
	var number *string
	if doc.Number != "" {
		number = &doc.Number
	}
	var docID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO documents (identifier, doc_type, title, action_date, url, order_number, summary, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		doc.Identifier,
		string(doc.Type),
		doc.Title,
		doc.Date,
		doc.URL,
		number,
		doc.Summary,
		doc.Content,
	).Scan(&docID)
	if err != nil {
		return 0, fmt.Errorf("insert document %s: %w", doc.Identifier, err)
	}
	return docID, nil
}

// attachLabels upserts each label by its unique name and links it to the
// document.
func (s *DocumentStore) attachLabels(
	ctx context.Context,
	tx pgx.Tx,
	docID int64,
	labelTable string,
	joinTable string,
	joinColumn string,
	labels []string,
) error {
	for _, label := range labels {
		var labelID int64
		upsert := fmt.Sprintf(`
			INSERT INTO %s (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, labelTable)
		if err := tx.QueryRow(ctx, upsert, label).Scan(&labelID); err != nil {
			return fmt.Errorf("upsert %s label %q: %w", labelTable, label, err)
		}
		link := fmt.Sprintf(`
			INSERT INTO %s (document_id, %s) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, joinTable, joinColumn)
		if _, err := tx.Exec(ctx, link, docID, labelID); err != nil {
			return fmt.Errorf("link %s label %q: %w", labelTable, label, err)
		}
	}
	return nil
}
