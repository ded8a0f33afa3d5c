// Содержит перечисления доменных значений приложения: статусы и приоритеты задач, статусы спринтов, роли пользователей.  Предоставляет методы валидации значений и вспомогательные константы для времени жизни токенов.
//
// Основные возможности:
//   - Статусы задач канбан-доски и их проверка.
//   - Приоритеты задач.
//   - Статусы жизненного цикла спринта.
//   - Роли пользователей.
package types

import "time"

const (
	AccessTokenPeriod  = time.Hour * 24
	RefreshTokenPeriod = time.Hour * 24 * 14
)

// TaskStatus - статус задачи, одна из четырех фиксированных колонок доски.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "TO_DO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// AllTaskStatuses - порядок колонок на доске.
var AllTaskStatuses = []TaskStatus{StatusToDo, StatusInProgress, StatusReview, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	return string(s)
}

// TaskPriority - приоритет задачи.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// SprintStatus - статус жизненного цикла спринта.
type SprintStatus string

const (
	SprintPlanning  SprintStatus = "PLANNING"
	SprintActive    SprintStatus = "ACTIVE"
	SprintCompleted SprintStatus = "COMPLETED"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanning, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// UserRole - роль пользователя в системе.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleManager   UserRole = "MANAGER"
	RoleDeveloper UserRole = "DEVELOPER"
	RoleReporter  UserRole = "REPORTER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleReporter:
		return true
	}
	return false
}
