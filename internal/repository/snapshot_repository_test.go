package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routinez-api/internal/models"
)

func newSnapshotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSnapshotRepositorySavePrunes(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO catalog_snapshots")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM catalog_snapshots")).
		WithArgs(keepSnapshots).
		WillReturnResult(sqlmock.NewResult(0, 2))

	snapshot := models.NewSnapshot(time.Now().UTC(), []models.Section{
		{SectionID: "1", CourseCode: "CSE220", SectionName: "01"},
	})
	require.NoError(t, repo.Save(context.Background(), snapshot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	fetchedAt := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	payload, err := json.Marshal([]models.Section{
		{SectionID: "1", CourseCode: "CSE220", SectionName: "01"},
		{SectionID: "2", CourseCode: "MAT216", SectionName: "03"},
	})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "fetched_at", "section_count", "payload"}).
		AddRow("snap-1", fetchedAt, 2, payload)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, fetched_at, section_count, payload")).
		WillReturnRows(rows)

	snapshot, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Equal(t, fetchedAt, snapshot.FetchedAt)
	require.Len(t, snapshot.Sections, 2)
	require.Len(t, snapshot.SectionsByCourse("CSE220"), 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLatestEmptyArchive(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()

	repo := NewSnapshotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, fetched_at, section_count, payload")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fetched_at", "section_count", "payload"}))

	snapshot, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.Nil(t, snapshot)
	require.NoError(t, mock.ExpectationsWereMet())
}
