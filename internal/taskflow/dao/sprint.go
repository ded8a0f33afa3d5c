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

// Sprint - итерация работы с фиксированным временным окном.
type Sprint struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`

	Status types.SprintStatus `json:"status" gorm:"default:'PLANNING'"`

	CreatedById uuid.UUID `json:"created_by_id" gorm:"type:uuid"`
	CreatedBy   *User     `json:"created_by_detail,omitempty" gorm:"foreignKey:CreatedById" extensions:"x-nullable"`

	Tasks []Task `json:"-" gorm:"foreignKey:SprintId"`
}

func (Sprint) TableName() string { return "sprints" }

func (s *Sprint) BeforeCreate(tx *gorm.DB) error {
	if s.Id.IsNil() {
		s.Id = GenUUID()
	}
	return nil
}

// CheckTimeWindow проверяет инвариант временного окна: дата окончания строго позже даты начала.
func (s *Sprint) CheckTimeWindow() error {
	if !s.EndDate.After(s.StartDate) {
		return apierrors.ErrInvalidSprintTimeWindow
	}
	return nil
}

func (s *Sprint) ToLightDTO() *dto.SprintLight {
	if s == nil {
		return nil
	}
	return &dto.SprintLight{
		Id:          s.Id,
		Name:        s.Name,
		Description: s.Description,
		Status:      s.Status,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
	}
}

func (s *Sprint) ToDTO() *dto.Sprint {
	if s == nil {
		return nil
	}
	res := dto.Sprint{
		SprintLight: *s.ToLightDTO(),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		CreatedBy:   s.CreatedBy.ToLightDTO(),
	}
	for _, task := range s.Tasks {
		res.Tasks = append(res.Tasks, *task.ToLightDTO())
	}
	return &res
}

// CreateSprint валидирует и сохраняет новый спринт.
func CreateSprint(db *gorm.DB, sprint *Sprint) error {
	if sprint.Name == "" || sprint.StartDate.IsZero() || sprint.EndDate.IsZero() {
		return apierrors.ErrSprintValidate
	}
	if err := sprint.CheckTimeWindow(); err != nil {
		return err
	}
	if sprint.Status == "" {
		sprint.Status = types.SprintPlanning
	}
	if !sprint.Status.Valid() {
		return apierrors.ErrInvalidSprintStatus.WithFormattedMessage(sprint.Status)
	}
	return db.Create(sprint).Error
}

// GetSprint загружает спринт по id. Возвращает ErrSprintNotFound, если такого спринта нет.
func GetSprint(db *gorm.DB, id uuid.UUID) (*Sprint, error) {
	var sprint Sprint
	if err := db.Preload("CreatedBy").Where("id = ?", id).First(&sprint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrSprintNotFound
		}
		return nil, err
	}
	return &sprint, nil
}

// DeleteSprint удаляет спринт и отвязывает все ссылающиеся на него задачи в одной транзакции. Сами задачи и их журналы не удаляются. Повторное удаление возвращает ErrSprintNotFound.
func DeleteSprint(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Task{}).Where("sprint_id = ?", id).Update("sprint_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Sprint{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierrors.ErrSprintNotFound
		}
		return nil
	})
}
