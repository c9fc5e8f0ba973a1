package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultraval/secure-desk-api/internal/models"
)

func TestCreateIncidentDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectExec("INSERT INTO incidents").WillReturnResult(sqlmock.NewResult(1, 1))

	incident := &models.Incident{
		RoomID:           "room-1",
		ClassificationID: "cls-1",
		Priority:         models.PriorityMedium,
		Description:      "retraso en apertura",
		ReportedBy:       "user-1",
	}
	err := repo.Create(context.Background(), incident)
	require.NoError(t, err)
	assert.NotEmpty(t, incident.ID)
	assert.Equal(t, models.IncidentStatusNew, incident.Status)
	assert.False(t, incident.OccurredAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIncidentByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	now := time.Now()
	minutes := 20
	rows := sqlmock.NewRows([]string{"id", "room_id", "classification_id", "priority", "status", "description", "numeric_value", "occurred_at", "reported_by", "assigned_to", "created_at", "updated_at"}).
		AddRow("inc-1", "room-1", "cls-1", string(models.PriorityHigh), string(models.IncidentStatusNew), "entrada tardia", minutes, now, "user-1", nil, now, now)
	mock.ExpectQuery("SELECT id, room_id, classification_id").
		WithArgs("inc-1").
		WillReturnRows(rows)

	incident, err := repo.GetByID(context.Background(), "inc-1")
	require.NoError(t, err)
	assert.Equal(t, "inc-1", incident.ID)
	require.NotNil(t, incident.NumericValue)
	assert.Equal(t, 20, *incident.NumericValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIncidentsFiltersByStatusAndRoom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	status := models.IncidentStatusAssigned
	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "room_id", "classification_id", "priority", "status", "description", "numeric_value", "occurred_at", "reported_by", "assigned_to", "created_at", "updated_at"}).
		AddRow("inc-2", "room-1", "cls-2", string(models.PriorityLow), string(status), "camara fuera de linea", nil, now, "user-1", "user-2", now, now)
	mock.ExpectQuery("SELECT id, room_id, classification_id").
		WithArgs("room-1", status).
		WillReturnRows(listRows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM incidents`).
		WithArgs("room-1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	incidents, total, err := repo.List(context.Background(), models.IncidentFilter{RoomID: "room-1", Status: &status})
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, status, incidents[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignIncident(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE incidents SET assigned_to = $2, status = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("inc-1", "user-2", models.IncidentStatusAssigned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Assign(context.Background(), "inc-1", "user-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateIncidentStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE incidents SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("inc-1", models.IncidentStatusClosed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "inc-1", models.IncidentStatusClosed)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatusForDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	rows := sqlmock.NewRows([]string{"label", "count"}).
		AddRow(string(models.IncidentStatusNew), 3).
		AddRow(string(models.IncidentStatusClosed), 5)
	mock.ExpectQuery("SELECT status AS label").
		WillReturnRows(rows)

	counts, err := repo.CountByStatusForDay(context.Background(), time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 3, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
