// Структуры данных для передачи информации о пользователях между слоями приложения.
package dto

import (
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
)

type UserLight struct {
	Id       uuid.UUID      `json:"id"`
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Role     types.UserRole `json:"role"`

	ProfilePicture string `json:"profile_picture,omitempty"`
}

type User struct {
	UserLight

	IsActive   bool       `json:"is_active"`
	LastActive *time.Time `json:"last_active,omitempty" extensions:"x-nullable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
