package dto

import (
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
)

type TaskLight struct {
	Id       uuid.UUID          `json:"id"`
	Title    string             `json:"title"`
	Priority types.TaskPriority `json:"priority"`
	Status   types.TaskStatus   `json:"status"`

	Assignee *UserLight `json:"assignee,omitempty" extensions:"x-nullable"`
	Reporter *UserLight `json:"reporter,omitempty" extensions:"x-nullable"`

	SprintId *uuid.UUID `json:"sprint_id,omitempty" extensions:"x-nullable"`
}

type Task struct {
	TaskLight

	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sprint      *SprintLight     `json:"sprint,omitempty" extensions:"x-nullable"`
	Attachments []TaskAttachment `json:"attachments,omitempty"`
	History     []TaskHistory    `json:"history,omitempty"`
}

type TaskAttachment struct {
	Id         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`

	UploadedBy *UserLight `json:"uploaded_by,omitempty" extensions:"x-nullable"`
}

// TaskHistory - одна запись журнала смены статусов задачи.
type TaskHistory struct {
	Id        uuid.UUID        `json:"id"`
	Status    types.TaskStatus `json:"status"`
	Comment   string           `json:"comment"`
	CreatedAt time.Time        `json:"created_at"`

	UpdatedBy *UserLight `json:"updated_by,omitempty" extensions:"x-nullable"`
}
