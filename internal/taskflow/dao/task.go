package dao

import (
	"errors"
	"fmt"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dto"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Task - задача на канбан-доске. История смены статусов хранится в append-only журнале TaskHistory, единственная точка записи в журнал - MoveStatus.
type Task struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`

	Priority types.TaskPriority `json:"priority" gorm:"default:'MEDIUM'"`
	Status   types.TaskStatus   `json:"status" gorm:"default:'TO_DO';index"`

	AssigneeId uuid.UUID     `json:"assignee_id" gorm:"type:uuid;index;not null"`
	ReporterId uuid.UUID     `json:"reporter_id" gorm:"type:uuid;index;not null"`
	SprintId   uuid.NullUUID `json:"sprint_id" gorm:"type:uuid;index" extensions:"x-nullable"`

	Assignee *User   `json:"assignee_detail,omitempty" gorm:"foreignKey:AssigneeId" extensions:"x-nullable"`
	Reporter *User   `json:"reporter_detail,omitempty" gorm:"foreignKey:ReporterId" extensions:"x-nullable"`
	Sprint   *Sprint `json:"sprint_detail,omitempty" gorm:"foreignKey:SprintId" extensions:"x-nullable"`

	Attachments []TaskAttachment `json:"attachments,omitempty" gorm:"foreignKey:TaskId"`
	History     []TaskHistory    `json:"history,omitempty" gorm:"foreignKey:TaskId"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.Id.IsNil() {
		t.Id = GenUUID()
	}
	return nil
}

func (t *Task) BeforeDelete(tx *gorm.DB) error {
	if err := tx.Where("task_id = ?", t.Id).Delete(&TaskHistory{}).Error; err != nil {
		return err
	}
	return tx.Where("task_id = ?", t.Id).Delete(&TaskAttachment{}).Error
}

// TaskAttachment - файл, прикрепленный к задаче. Бинарное содержимое лежит в файловом хранилище, строка хранит имя и ключ объекта.
type TaskAttachment struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at"`

	TaskId uuid.UUID `json:"task_id" gorm:"type:uuid;index;not null"`

	Filename string `json:"filename" gorm:"not null"`
	Path     string `json:"path" gorm:"not null"`

	UploadedById uuid.UUID `json:"uploaded_by_id" gorm:"type:uuid"`
	UploadedBy   *User     `json:"uploaded_by_detail,omitempty" gorm:"foreignKey:UploadedById" extensions:"x-nullable"`
}

func (TaskAttachment) TableName() string { return "task_attachments" }

// TaskHistory - запись журнала смены статусов задачи. Журнал append-only: записи никогда не изменяются и не удаляются, кроме каскадного удаления вместе с задачей.
type TaskHistory struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	TaskId uuid.UUID `json:"task_id" gorm:"type:uuid;index;not null"`

	Status  types.TaskStatus `json:"status" gorm:"not null"`
	Comment string           `json:"comment"`

	UpdatedById uuid.UUID `json:"updated_by_id" gorm:"type:uuid"`
	UpdatedBy   *User     `json:"updated_by_detail,omitempty" gorm:"foreignKey:UpdatedById" extensions:"x-nullable"`
}

func (TaskHistory) TableName() string { return "task_history" }

func (t *Task) ToLightDTO() *dto.TaskLight {
	if t == nil {
		return nil
	}
	res := dto.TaskLight{
		Id:       t.Id,
		Title:    t.Title,
		Priority: t.Priority,
		Status:   t.Status,
		Assignee: t.Assignee.ToLightDTO(),
		Reporter: t.Reporter.ToLightDTO(),
	}
	if t.SprintId.Valid {
		id := t.SprintId.UUID
		res.SprintId = &id
	}
	return &res
}

func (t *Task) ToDTO() *dto.Task {
	if t == nil {
		return nil
	}
	res := dto.Task{
		TaskLight:   *t.ToLightDTO(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Sprint:      t.Sprint.ToLightDTO(),
	}
	for _, attachment := range t.Attachments {
		res.Attachments = append(res.Attachments, *attachment.ToDTO())
	}
	for _, entry := range t.History {
		res.History = append(res.History, *entry.ToDTO())
	}
	return &res
}

func (a *TaskAttachment) ToDTO() *dto.TaskAttachment {
	if a == nil {
		return nil
	}
	return &dto.TaskAttachment{
		Id:         a.Id,
		Filename:   a.Filename,
		Path:       a.Path,
		UploadedAt: a.CreatedAt,
		UploadedBy: a.UploadedBy.ToLightDTO(),
	}
}

func (h *TaskHistory) ToDTO() *dto.TaskHistory {
	if h == nil {
		return nil
	}
	return &dto.TaskHistory{
		Id:        h.Id,
		Status:    h.Status,
		Comment:   h.Comment,
		CreatedAt: h.CreatedAt,
		UpdatedBy: h.UpdatedBy.ToLightDTO(),
	}
}

// CreateTask валидирует, проверяет ссылки и сохраняет новую задачу. В той же транзакции создается первая запись журнала с начальным статусом от имени автора задачи.
func CreateTask(db *gorm.DB, task *Task) error {
	if task.Title == "" || task.AssigneeId.IsNil() || task.ReporterId.IsNil() {
		return apierrors.ErrTaskValidate
	}

	if task.Status == "" {
		task.Status = types.StatusToDo
	}
	if !task.Status.Valid() {
		return apierrors.ErrInvalidTaskStatus.WithFormattedMessage(task.Status)
	}

	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}
	if !task.Priority.Valid() {
		return apierrors.ErrInvalidTaskPriority.WithFormattedMessage(task.Priority)
	}

	for _, userId := range []uuid.UUID{task.AssigneeId, task.ReporterId} {
		exist, err := UserExists(db, userId)
		if err != nil {
			return err
		}
		if !exist {
			return apierrors.ErrUserNotFound
		}
	}

	if task.SprintId.Valid {
		if _, err := GetSprint(db, task.SprintId.UUID); err != nil {
			return err
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		entry := TaskHistory{
			Id:          GenUUID(),
			TaskId:      task.Id,
			Status:      task.Status,
			Comment:     "Task created",
			UpdatedById: task.ReporterId,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		task.History = append(task.History, entry)
		return nil
	})
}

// GetTask загружает задачу со всеми связями; журнал отсортирован по времени создания. Возвращает ErrTaskNotFound, если такой задачи нет.
func GetTask(db *gorm.DB, id uuid.UUID) (*Task, error) {
	var task Task
	err := db.
		Preload("Assignee").
		Preload("Reporter").
		Preload("Sprint").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Attachments.UploadedBy").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("History.UpdatedBy").
		Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// MoveStatus переводит задачу в новый статус. Единственная точка записи в журнал после создания задачи.
//
// Перевод в текущий статус - no-op без записи в журнал и без обновления updated_at. Проверка смены выполняется оптимистично по старому статусу: если задача уже изменена параллельным запросом, возвращается ErrTaskConflict и вызывающий должен перечитать задачу.
func (t *Task) MoveStatus(db *gorm.DB, newStatus types.TaskStatus, actorId uuid.UUID, comment string) error {
	if !newStatus.Valid() {
		return apierrors.ErrInvalidTaskStatus.WithFormattedMessage(newStatus)
	}

	if newStatus == t.Status {
		return nil
	}

	if comment == "" {
		comment = fmt.Sprintf("Status changed to %s", newStatus)
	}

	oldStatus := t.Status
	now := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Task{}).
			Where("id = ? AND status = ?", t.Id, oldStatus).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierrors.ErrTaskConflict
		}

		entry := TaskHistory{
			Id:          GenUUID(),
			TaskId:      t.Id,
			Status:      newStatus,
			Comment:     comment,
			UpdatedById: actorId,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		t.History = append(t.History, entry)
		return nil
	})
	if err != nil {
		return err
	}

	t.Status = newStatus
	t.UpdatedAt = now
	return nil
}

// UpdateFields выполняет частичное обновление полей задачи. Статус через этот путь менять нельзя - смена статуса идет только через MoveStatus и не должна попадать в журнал отсюда.
func (t *Task) UpdateFields(db *gorm.DB, fields map[string]interface{}) error {
	if _, ok := fields["status"]; ok {
		return apierrors.ErrTaskStatusUpdateDenied
	}

	for field, value := range fields {
		switch field {
		case "title":
			if value == "" {
				return apierrors.ErrTaskValidate
			}
		case "priority":
			if p, ok := value.(types.TaskPriority); !ok || !p.Valid() {
				return apierrors.ErrInvalidTaskPriority.WithFormattedMessage(value)
			}
		case "assignee_id":
			id, ok := value.(uuid.UUID)
			if !ok || id.IsNil() {
				return apierrors.ErrTaskValidate
			}
			exist, err := UserExists(db, id)
			if err != nil {
				return err
			}
			if !exist {
				return apierrors.ErrUserNotFound
			}
		case "sprint_id":
			if sprintId, ok := value.(uuid.NullUUID); ok && sprintId.Valid {
				if _, err := GetSprint(db, sprintId.UUID); err != nil {
					return err
				}
			}
		case "description":
		default:
			return apierrors.ErrTaskBadRequest
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return db.Model(t).Updates(fields).Error
}

// AddAttachment прикрепляет файл к задаче. Журнал статусов не затрагивается.
func (t *Task) AddAttachment(db *gorm.DB, attachment *TaskAttachment) error {
	if attachment.Id.IsNil() {
		attachment.Id = GenUUID()
	}
	attachment.TaskId = t.Id

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attachment).Error; err != nil {
			return err
		}
		if err := tx.Model(&Task{}).Where("id = ?", t.Id).Update("updated_at", time.Now()).Error; err != nil {
			return err
		}
		t.Attachments = append(t.Attachments, *attachment)
		return nil
	})
}

// RemoveAttachment удаляет вложение задачи по id и возвращает удаленную строку, чтобы вызывающий мог убрать файл из хранилища. Возвращает ErrAttachmentNotFound, если вложение не принадлежит задаче.
func (t *Task) RemoveAttachment(db *gorm.DB, attachmentId uuid.UUID) (*TaskAttachment, error) {
	var attachment TaskAttachment
	if err := db.Where("task_id = ?", t.Id).Where("id = ?", attachmentId).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrAttachmentNotFound
		}
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&attachment).Error; err != nil {
			return err
		}
		return tx.Model(&Task{}).Where("id = ?", t.Id).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	kept := make([]TaskAttachment, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		if a.Id != attachment.Id {
			kept = append(kept, a)
		}
	}
	t.Attachments = kept

	return &attachment, nil
}

// GroupTasksByStatus раскладывает задачи по колонкам доски. В результате всегда присутствуют все четыре колонки, даже пустые.
func GroupTasksByStatus(tasks []Task) map[types.TaskStatus][]*dto.TaskLight {
	board := make(map[types.TaskStatus][]*dto.TaskLight, len(types.AllTaskStatuses))
	for _, status := range types.AllTaskStatuses {
		board[status] = []*dto.TaskLight{}
	}
	for i := range tasks {
		board[tasks[i].Status] = append(board[tasks[i].Status], tasks[i].ToLightDTO())
	}
	return board
}
