package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayman083/passport/internal/session/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresRepository_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      int64
		wantErr   bool
	}{
		{
			name: "live session",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT "user", expires FROM sessions`).
					WithArgs("sess-key").
					WillReturnRows(pgxmock.NewRows([]string{"user", "expires"}).
						AddRow(int64(9), time.Now().UTC().Add(time.Hour)))
			},
			want: 9,
		},
		{
			name: "missing session yields zero without error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT "user", expires FROM sessions`).
					WithArgs("sess-key").
					WillReturnError(pgx.ErrNoRows)
			},
			want: 0,
		},
		{
			name: "expired session is deleted and yields zero",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT "user", expires FROM sessions`).
					WithArgs("sess-key").
					WillReturnRows(pgxmock.NewRows([]string{"user", "expires"}).
						AddRow(int64(9), time.Now().UTC().Add(-time.Hour)))
				mock.ExpectExec(`DELETE FROM sessions`).
					WithArgs("sess-key").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
			want: 0,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT "user", expires FROM sessions`).
					WithArgs("sess-key").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			repo := NewPostgresRepository(mock)
			got, err := repo.Fetch(context.Background(), "sess-key")

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresRepository_Create(t *testing.T) {
	mock := newMock(t)
	expires := time.Now().UTC().Add(time.Hour)
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("sess-key", int64(9), expires).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	err := repo.Create(context.Background(), &domain.Session{Key: "sess-key", UserKey: 9, Expires: expires})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM sessions`).
		WithArgs("sess-key").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "sess-key"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
