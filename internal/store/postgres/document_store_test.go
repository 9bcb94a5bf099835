package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

func testDocument() actions.Document {
	return actions.Document{
		Identifier: "EO-14321",
		Type:       actions.TypeExecutiveOrder,
		Title:      "Executive Order 14321: Securing the Border",
		Date:       time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		URL:        "https://www.whitehouse.gov/presidential-actions/securing-the-border/",
		Number:     "14321",
		Summary:    "Directs DHS to act.",
		Categories: []string{"Immigration"},
		Agencies:   []string{"Department of Homeland Security"},
	}
}

func TestKnownKeys(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewDocumentStoreWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT url, identifier FROM documents").
		WillReturnRows(pgxmock.NewRows([]string{"url", "identifier"}).
			AddRow("https://example.gov/a/", "EO-14300").
			AddRow("https://example.gov/b/", "PM-2025001"))

	keys, err := store.KnownKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys.URLs, 2)
	require.Contains(t, keys.Identifiers, "EO-14300")
	require.Contains(t, keys.Identifiers, "PM-2025001")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNew_CommitsDocumentWithLabels(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewDocumentStoreWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	doc := testDocument()
	number := doc.Number

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(
			doc.Identifier,
			string(doc.Type),
			doc.Title,
			doc.Date,
			doc.URL,
			&number,
			doc.Summary,
			doc.Content,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Immigration").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec("INSERT INTO document_categories").
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO agencies").
		WithArgs("Department of Homeland Security").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec("INSERT INTO document_agencies").
		WithArgs(int64(7), int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	count, err := store.InsertNew(context.Background(), []actions.Document{doc})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNew_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewDocumentStoreWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	count, err := store.InsertNew(context.Background(), []actions.Document{testDocument()})
	require.Error(t, err)
	require.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNew_EmptyBatch(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewDocumentStoreWithPool(mock, zap.NewNop())
	require.NoError(t, err)

	count, err := store.InsertNew(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
