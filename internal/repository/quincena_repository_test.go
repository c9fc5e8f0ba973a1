package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultraval/secure-desk-api/internal/models"
)

func TestIncrementLateEntryResolvesFirstHalf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	date := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO quincena_counters").
		WithArgs("room-1", 2025, 3, 1, 12, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Increment(context.Background(), models.CounterIncrement{
		RoomID:   "room-1",
		Category: models.CategoryLateEntry,
		Value:    12,
		Date:     date,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementEarlyClosureResolvesSecondHalf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	date := time.Date(2025, time.March, 16, 0, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO quincena_counters").
		WithArgs("room-2", 2025, 3, 2, 45, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Increment(context.Background(), models.CounterIncrement{
		RoomID:   "room-2",
		Category: models.CategoryEarlyClosure,
		Value:    45,
		Date:     date,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementRejectsUnknownCategory(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	err := repo.Increment(context.Background(), models.CounterIncrement{
		RoomID:   "room-1",
		Category: models.CounterCategory("mystery"),
		Value:    1,
		Date:     time.Now(),
	})
	require.Error(t, err)
}

func TestFetchMonthJoinsRoomNames(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"room_id", "room_name", "year", "month", "half", "minutes_late_entries", "minutes_early_closures", "count_late_entries", "count_early_closures", "updated_at"}).
		AddRow("room-1", "Sala Centro", 2025, 3, 1, 30, 0, 2, 0, now).
		AddRow("room-1", "Sala Centro", 2025, 3, 2, 15, 45, 1, 1, now)
	mock.ExpectQuery("SELECT qc.room_id, r.name AS room_name").
		WithArgs(2025, 3).
		WillReturnRows(rows)

	counters, err := repo.FetchMonth(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.Len(t, counters, 2)
	assert.Equal(t, "Sala Centro", counters[0].RoomName)
	assert.Equal(t, 1, counters[0].Half)
	assert.Equal(t, 2, counters[1].Half)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMonthFiltersByRoom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	rows := sqlmock.NewRows([]string{"room_id", "room_name", "year", "month", "half", "minutes_late_entries", "minutes_early_closures", "count_late_entries", "count_early_closures", "updated_at"}).
		AddRow("room-9", "Sala Norte", 2025, 7, 1, 5, 0, 1, 0, time.Now())
	mock.ExpectQuery("SELECT qc.room_id, r.name AS room_name").
		WithArgs(2025, 7, "room-9").
		WillReturnRows(rows)

	counters, err := repo.FetchMonth(context.Background(), models.QuincenaStatsFilter{Year: 2025, Month: 7, RoomID: "room-9"})
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Equal(t, "room-9", counters[0].RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchYearAggregatesPeriods(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"room_id", "room_name", "year", "month", "half", "minutes_late_entries", "minutes_early_closures", "count_late_entries", "count_early_closures", "updated_at"}).
		AddRow("", "", 2025, 1, 1, 100, 20, 4, 1, now).
		AddRow("", "", 2025, 1, 2, 50, 0, 2, 0, now)
	mock.ExpectQuery("FROM quincena_counters").
		WithArgs(2025).
		WillReturnRows(rows)

	counters, err := repo.FetchYear(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, counters, 2)
	assert.Equal(t, 100, counters[0].MinutesLateEntries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildWindowZeroesThenRecomputes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	from := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quincena_counters SET").
		WithArgs(from, to, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec("INSERT INTO quincena_counters").
		WithArgs(from, to, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	rebuilt, err := repo.RebuildWindow(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 4, rebuilt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebuildWindowRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuincenaRepository(db)

	from := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quincena_counters SET").
		WithArgs(from, to, sqlmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.RebuildWindow(context.Background(), from, to)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
