package dao

import (
	"errors"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dto"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// User - учетная запись пользователя системы.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-"`
	Name     string `json:"name"`

	Role types.UserRole `json:"role" gorm:"default:'DEVELOPER'"`

	ProfilePicture string `json:"profile_picture"`

	LastActive  *time.Time `json:"last_active" extensions:"x-nullable"`
	IsActive    bool       `json:"is_active" gorm:"default:true"`
	IsSuperuser bool       `json:"is_superuser" gorm:"default:false"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsNil() {
		u.ID = GenUUID()
	}
	return nil
}

func (u *User) ToLightDTO() *dto.UserLight {
	if u == nil {
		return nil
	}
	return &dto.UserLight{
		Id:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
	}
}

func (u *User) ToDTO() *dto.User {
	if u == nil {
		return nil
	}
	return &dto.User{
		UserLight:  *u.ToLightDTO(),
		IsActive:   u.IsActive,
		LastActive: u.LastActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// GetUser загружает пользователя по id. Возвращает ErrUserNotFound, если такого пользователя нет.
func GetUser(db *gorm.DB, id uuid.UUID) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserExists проверяет наличие пользователя с указанным id.
func UserExists(db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
