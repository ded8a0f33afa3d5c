package dto

import (
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
)

type SprintLight struct {
	Id          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Status      types.SprintStatus `json:"status"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type Sprint struct {
	SprintLight

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedBy *UserLight  `json:"created_by,omitempty" extensions:"x-nullable"`
	Tasks     []TaskLight `json:"tasks,omitempty"`
}
