package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestPlanSnapshotRepository_SaveUpsertsOnTripID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPlanSnapshotRepository(gdb)

	upsert := `INSERT INTO "plan_snapshots" .*` + regexp.QuoteMeta(
		`ON CONFLICT ("trip_id") DO UPDATE SET "token"="excluded"."token","payload"="excluded"."payload","updated_at"="excluded"."updated_at"`)
	for _, token := range []uint64{1, 2} {
		mock.ExpectExec(upsert).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "paris", token, `{"trip_name":"Paris"}`).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	require.NoError(t, repo.SaveSnapshot(context.Background(), "paris", 1, []byte(`{"trip_name":"Paris"}`)))
	require.NoError(t, repo.SaveSnapshot(context.Background(), "paris", 2, []byte(`{"trip_name":"Paris"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanSnapshotRepository_SaveReturnsDatabaseError(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPlanSnapshotRepository(gdb)

	mock.ExpectExec(`INSERT INTO "plan_snapshots"`).WillReturnError(errors.New("connection reset"))

	err := repo.SaveSnapshot(context.Background(), "paris", 1, []byte(`{}`))
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanSnapshotRepository_GetSnapshot(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPlanSnapshotRepository(gdb)
	selectByTrip := `SELECT \* FROM "plan_snapshots" WHERE trip_id = \$1`

	id := uuid.New()
	mock.ExpectQuery(selectByTrip).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "trip_id", "token", "payload"}).
			AddRow(id.String(), int64(1700000000), int64(1700000100), "paris", int64(7), `{"trip_name":"Paris"}`))
	mock.ExpectQuery(selectByTrip).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "trip_id", "token", "payload"}))

	got, err := repo.GetSnapshot(context.Background(), "paris")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, uint64(7), got.Token)
	assert.Equal(t, int64(1700000100), got.UpdatedAt)
	assert.JSONEq(t, `{"trip_name":"Paris"}`, got.Payload)

	got, err = repo.GetSnapshot(context.Background(), "lisbon")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}
