package dao

import (
	"testing"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSprintTimeWindow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "manager")

	start := time.Now()

	tests := []struct {
		name string
		end  time.Time
		err  error
	}{
		{"end before start", start.Add(-time.Hour), apierrors.ErrInvalidSprintTimeWindow},
		{"end equals start", start, apierrors.ErrInvalidSprintTimeWindow},
		{"end after start", start.Add(time.Hour * 24), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sprint := Sprint{
				Name:        "Sprint",
				StartDate:   start,
				EndDate:     tt.end,
				CreatedById: user.ID,
			}
			err := CreateSprint(db, &sprint)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateSprintValidation(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "manager")

	err := CreateSprint(db, &Sprint{Name: "", StartDate: time.Now(), EndDate: time.Now().Add(time.Hour), CreatedById: user.ID})
	assert.ErrorIs(t, err, apierrors.ErrSprintValidate)

	err = CreateSprint(db, &Sprint{Name: "Sprint", EndDate: time.Now().Add(time.Hour), CreatedById: user.ID})
	assert.ErrorIs(t, err, apierrors.ErrSprintValidate)

	err = CreateSprint(db, &Sprint{
		Name:        "Sprint",
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(time.Hour),
		Status:      "ARCHIVED",
		CreatedById: user.ID,
	})
	var derr apierrors.DefinedError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, apierrors.ErrInvalidSprintStatus.Code, derr.Code)
}

func TestCreateSprintDefaultStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "manager")

	sprint := Sprint{
		Name:        "Sprint",
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(time.Hour * 24),
		CreatedById: user.ID,
	}
	require.NoError(t, CreateSprint(db, &sprint))
	assert.Equal(t, types.SprintPlanning, sprint.Status)
}

func TestGetSprintNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetSprint(db, GenUUID())
	assert.ErrorIs(t, err, apierrors.ErrSprintNotFound)
}

func TestDeleteSprintUnlinksTasks(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	sprint := createTestSprint(t, db, reporter)

	task := Task{
		Title:      "In sprint",
		AssigneeId: assignee.ID,
		ReporterId: reporter.ID,
		SprintId:   uuid.NullUUID{UUID: sprint.Id, Valid: true},
	}
	require.NoError(t, CreateTask(db, &task))
	require.NoError(t, task.MoveStatus(db, types.StatusInProgress, assignee.ID, ""))

	require.NoError(t, DeleteSprint(db, sprint.Id))

	_, err := GetSprint(db, sprint.Id)
	assert.ErrorIs(t, err, apierrors.ErrSprintNotFound)

	// Task and its history survive, only the link is cleared
	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.False(t, loaded.SprintId.Valid)
	assert.Equal(t, types.StatusInProgress, loaded.Status)
	assert.Len(t, loaded.History, 2)
}

func TestDeleteSprintTwice(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "manager")
	sprint := createTestSprint(t, db, user)

	require.NoError(t, DeleteSprint(db, sprint.Id))
	assert.ErrorIs(t, DeleteSprint(db, sprint.Id), apierrors.ErrSprintNotFound)
}
