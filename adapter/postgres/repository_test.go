package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"rssdigest/domain"
)

const addr = "https://hnrss.org/frontpage"

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, zaptest.NewLogger(t)), mock
}

func TestRepository_Ensure(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS feed_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Ensure(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Save(t *testing.T) {
	repo, mock := newRepo(t)
	snap := &domain.Snapshot{
		SourceURL:   addr,
		Items:       []domain.Entry{{Link: "a", Summary: "S1"}, {Link: "b"}},
		LastUpdated: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec("INSERT INTO feed_snapshots .* ON CONFLICT \\(source_url\\) DO UPDATE").
		WithArgs(addr, sqlmock.AnyArg(), 2, snap.LastUpdated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), addr, snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO feed_snapshots").WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), addr, &domain.Snapshot{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestRepository_Load(t *testing.T) {
	repo, mock := newRepo(t)
	payload, err := json.Marshal(domain.Snapshot{SourceURL: addr, Title: "HN", Items: []domain.Entry{{Link: "a", Summary: "S1"}}})
	require.NoError(t, err)
	mock.ExpectQuery("SELECT payload FROM feed_snapshots WHERE source_url = \\$1").
		WithArgs(addr).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	snap, ok, err := repo.Load(context.Background(), addr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "HN", snap.Title)
	assert.Equal(t, "S1", snap.Items[0].Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LoadMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT payload FROM feed_snapshots").
		WithArgs(addr).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, ok, err := repo.Load(context.Background(), addr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_LoadCorruptMeansNoSnapshot(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT payload").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte("not json")))

	_, ok, err := repo.Load(context.Background(), addr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_LoadQueryErrorIsReported(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT payload").WillReturnError(errors.New("connection reset by peer"))

	_, ok, err := repo.Load(context.Background(), addr)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}
