package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-reservation/internal/model"
)

func TestReviewRepo_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepo(db)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO reviews").WithArgs(1, 2, 5, "great").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT .* FROM reviews WHERE id=\\?").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "event_id", "rating", "review_text", "lifecycle", "created_at", "updated_at"}).
			AddRow(9, 1, 2, 5, "great", "ACTIVE", now, now))

	rv := &model.Review{UserID: 1, EventID: 2, Rating: 5, Text: "great"}
	require.NoError(t, repo.Create(context.Background(), rv))
	assert.Equal(t, uint64(9), rv.ID)
	assert.Equal(t, model.LifecycleActive, rv.Lifecycle)
}

func TestReviewRepo_ExistsActive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reviews").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	ok, err := repo.ExistsActive(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewRepo_SoftDeleteMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepo(db)

	mock.ExpectExec("UPDATE reviews SET lifecycle='DELETED'").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SoftDelete(context.Background(), 4), ErrNotFound)
}
