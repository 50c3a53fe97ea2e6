package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"wayfarer/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedUser  *models.User
		expectedError string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: models.CodeNotFound,
		},
		{
			name:   "Driver Failure",
			userID: 5,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
					WillReturnError(errors.New("connection refused"))
			},
			expectedError: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, models.CodeOf(err))
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Search(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "ana", "anabel", "ben")
	repo := NewUserRepository(db)
	ctx := context.Background()

	got, err := repo.Search(ctx, "ana", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ana", got[0].Username)
	assert.Equal(t, "anabel", got[1].Username)

	got, err = repo.Search(ctx, "@BEN", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.Search(ctx, "ben@example.com", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ben", got[0].Username)

	got, err = repo.Search(ctx, "nobody@example.com", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "ana", Email: "ana@example.com"}))
	err := repo.Create(ctx, &models.User{Username: "ana", Email: "ana2@example.com"})
	assert.True(t, models.IsValidation(err))

	u, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana", u.Username)

	missing, err := repo.GetByUsername(ctx, "zed")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
