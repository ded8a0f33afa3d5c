package dao

import (
	"fmt"
	"testing"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает in-memory базу с мигрированной схемой
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&User{}, &Sprint{}, &Task{}, &TaskAttachment{}, &TaskHistory{}))
	return db
}

// createTestUser создает пользователя для тестов
func createTestUser(t *testing.T, db *gorm.DB, username string) User {
	user := User{
		ID:       GenUUID(),
		Username: username,
		Email:    username + "@test.local",
		Name:     "Test " + username,
		Role:     types.RoleDeveloper,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// createTestSprint создает спринт для тестов
func createTestSprint(t *testing.T, db *gorm.DB, createdBy User) Sprint {
	sprint := Sprint{
		Id:          GenUUID(),
		Name:        "Test sprint",
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(time.Hour * 24 * 14),
		Status:      types.SprintPlanning,
		CreatedById: createdBy.ID,
	}
	require.NoError(t, CreateSprint(db, &sprint))
	return sprint
}

// createTestTask создает задачу через CreateTask
func createTestTask(t *testing.T, db *gorm.DB, assignee User, reporter User) Task {
	task := Task{
		Title:      "Test task",
		AssigneeId: assignee.ID,
		ReporterId: reporter.ID,
	}
	require.NoError(t, CreateTask(db, &task))
	return task
}

func TestCreateTaskSeedsHistory(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")

	task := createTestTask(t, db, assignee, reporter)

	assert.Equal(t, types.StatusToDo, task.Status)
	assert.Equal(t, types.PriorityMedium, task.Priority)

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, types.StatusToDo, loaded.History[0].Status)
	assert.Equal(t, "Task created", loaded.History[0].Comment)
	assert.Equal(t, reporter.ID, loaded.History[0].UpdatedById)
}

func TestCreateTaskValidation(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")

	tests := []struct {
		name string
		task Task
		err  error
	}{
		{"empty title", Task{AssigneeId: assignee.ID, ReporterId: reporter.ID}, apierrors.ErrTaskValidate},
		{"no assignee", Task{Title: "t", ReporterId: reporter.ID}, apierrors.ErrTaskValidate},
		{"no reporter", Task{Title: "t", AssigneeId: assignee.ID}, apierrors.ErrTaskValidate},
		{"unknown assignee", Task{Title: "t", AssigneeId: GenUUID(), ReporterId: reporter.ID}, apierrors.ErrUserNotFound},
		{"unknown sprint", Task{
			Title: "t", AssigneeId: assignee.ID, ReporterId: reporter.ID,
			SprintId: uuid.NullUUID{UUID: GenUUID(), Valid: true},
		}, apierrors.ErrSprintNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CreateTask(db, &tt.task)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCreateTaskInvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")

	task := Task{
		Title:      "t",
		Status:     "DOING",
		AssigneeId: assignee.ID,
		ReporterId: reporter.ID,
	}
	err := CreateTask(db, &task)
	var derr apierrors.DefinedError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, apierrors.ErrInvalidTaskStatus.Code, derr.Code)
}

func TestMoveStatusAppendsHistory(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	moves := []types.TaskStatus{types.StatusInProgress, types.StatusReview, types.StatusDone}
	for _, status := range moves {
		require.NoError(t, task.MoveStatus(db, status, assignee.ID, ""))
		assert.Equal(t, status, task.Status)
	}

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDone, loaded.Status)
	require.Len(t, loaded.History, len(moves)+1)

	// Chronological order, one entry per move
	for i, status := range moves {
		entry := loaded.History[i+1]
		assert.Equal(t, status, entry.Status)
		assert.Equal(t, fmt.Sprintf("Status changed to %s", status), entry.Comment)
		assert.Equal(t, assignee.ID, entry.UpdatedById)
	}
}

func TestMoveStatusCustomComment(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	require.NoError(t, task.MoveStatus(db, types.StatusInProgress, assignee.ID, "Started working"))

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	require.Len(t, loaded.History, 2)
	assert.Equal(t, "Started working", loaded.History[1].Comment)
}

func TestMoveStatusSameValueNoop(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	before, err := GetTask(db, task.Id)
	require.NoError(t, err)

	require.NoError(t, task.MoveStatus(db, types.StatusToDo, assignee.ID, "ignored"))

	after, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Len(t, after.History, 1)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestMoveStatusInvalidValue(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	err := task.MoveStatus(db, "BLOCKED", assignee.ID, "")
	var derr apierrors.DefinedError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, apierrors.ErrInvalidTaskStatus.Code, derr.Code)
	assert.Equal(t, "invalid task status 'BLOCKED'", derr.Err)
	assert.Equal(t, "Недопустимый статус задачи 'BLOCKED'", derr.RuErr)

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusToDo, loaded.Status)
	assert.Len(t, loaded.History, 1)
}

func TestMoveStatusConflict(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	stale, err := GetTask(db, task.Id)
	require.NoError(t, err)

	require.NoError(t, task.MoveStatus(db, types.StatusInProgress, assignee.ID, ""))

	// Second writer still sees TO_DO and must lose
	err = stale.MoveStatus(db, types.StatusReview, reporter.ID, "")
	assert.ErrorIs(t, err, apierrors.ErrTaskConflict)

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, loaded.Status)
	assert.Len(t, loaded.History, 2)
}

func TestUpdateFieldsDoesNotTouchHistory(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	err := task.UpdateFields(db, map[string]interface{}{
		"title":       "Renamed",
		"description": "New description",
		"priority":    types.PriorityUrgent,
	})
	require.NoError(t, err)

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Title)
	assert.Equal(t, types.PriorityUrgent, loaded.Priority)
	assert.Len(t, loaded.History, 1)
}

func TestUpdateFieldsRejectsStatus(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	err := task.UpdateFields(db, map[string]interface{}{"status": types.StatusDone})
	assert.ErrorIs(t, err, apierrors.ErrTaskStatusUpdateDenied)

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusToDo, loaded.Status)
	assert.Len(t, loaded.History, 1)
}

func TestUpdateFieldsSprintLink(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	sprint := createTestSprint(t, db, reporter)
	task := createTestTask(t, db, assignee, reporter)

	require.NoError(t, task.UpdateFields(db, map[string]interface{}{
		"sprint_id": uuid.NullUUID{UUID: sprint.Id, Valid: true},
	}))

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	require.True(t, loaded.SprintId.Valid)
	assert.Equal(t, sprint.Id, loaded.SprintId.UUID)

	// Unknown sprint is rejected
	err = task.UpdateFields(db, map[string]interface{}{
		"sprint_id": uuid.NullUUID{UUID: GenUUID(), Valid: true},
	})
	assert.ErrorIs(t, err, apierrors.ErrSprintNotFound)

	// Explicit null clears the link
	require.NoError(t, task.UpdateFields(db, map[string]interface{}{
		"sprint_id": uuid.NullUUID{},
	}))
	loaded, err = GetTask(db, task.Id)
	require.NoError(t, err)
	assert.False(t, loaded.SprintId.Valid)
}

func TestTaskAttachments(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	first := TaskAttachment{Filename: "spec.pdf", Path: GenUUID().String(), UploadedById: reporter.ID}
	second := TaskAttachment{Filename: "logs.txt", Path: GenUUID().String(), UploadedById: assignee.ID}
	require.NoError(t, task.AddAttachment(db, &first))
	require.NoError(t, task.AddAttachment(db, &second))

	loaded, err := GetTask(db, task.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Attachments, 2)
	assert.Len(t, loaded.History, 1)

	removed, err := loaded.RemoveAttachment(db, first.Id)
	require.NoError(t, err)
	assert.Equal(t, "spec.pdf", removed.Filename)
	assert.Len(t, loaded.Attachments, 1)

	_, err = loaded.RemoveAttachment(db, first.Id)
	assert.ErrorIs(t, err, apierrors.ErrAttachmentNotFound)

	loaded, err = GetTask(db, task.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Attachments, 1)
	assert.Equal(t, "logs.txt", loaded.Attachments[0].Filename)
	assert.Len(t, loaded.History, 1)
}

func TestDeleteTaskCascades(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")
	task := createTestTask(t, db, assignee, reporter)

	require.NoError(t, task.MoveStatus(db, types.StatusInProgress, assignee.ID, ""))
	attachment := TaskAttachment{Filename: "spec.pdf", Path: GenUUID().String(), UploadedById: reporter.ID}
	require.NoError(t, task.AddAttachment(db, &attachment))

	require.NoError(t, db.Delete(&task).Error)

	_, err := GetTask(db, task.Id)
	assert.ErrorIs(t, err, apierrors.ErrTaskNotFound)

	var historyCount, attachmentCount int64
	require.NoError(t, db.Model(&TaskHistory{}).Where("task_id = ?", task.Id).Count(&historyCount).Error)
	require.NoError(t, db.Model(&TaskAttachment{}).Where("task_id = ?", task.Id).Count(&attachmentCount).Error)
	assert.Zero(t, historyCount)
	assert.Zero(t, attachmentCount)
}

func TestGroupTasksByStatus(t *testing.T) {
	db := setupTestDB(t)
	assignee := createTestUser(t, db, "assignee")
	reporter := createTestUser(t, db, "reporter")

	first := createTestTask(t, db, assignee, reporter)
	second := createTestTask(t, db, assignee, reporter)
	require.NoError(t, second.MoveStatus(db, types.StatusInProgress, assignee.ID, ""))

	var tasks []Task
	require.NoError(t, db.Find(&tasks).Error)

	board := GroupTasksByStatus(tasks)
	require.Len(t, board, 4)
	assert.Len(t, board[types.StatusToDo], 1)
	assert.Len(t, board[types.StatusInProgress], 1)
	assert.Empty(t, board[types.StatusReview])
	assert.Empty(t, board[types.StatusDone])
	assert.Equal(t, first.Id, board[types.StatusToDo][0].Id)
}
