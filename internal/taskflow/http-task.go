package taskflow

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/dto"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

type TaskContext struct {
	AuthContext
	Task dao.Task
}

func (s *Services) TaskMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		taskId, err := uuid.FromString(c.Param("taskId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrTaskNotFound)
		}

		task, err := dao.GetTask(s.db, taskId)
		if err != nil {
			return EError(c, err)
		}

		return next(TaskContext{c.(AuthContext), *task})
	}
}

func (s *Services) AddTaskServices(g *echo.Group) {
	g.GET("tasks/", s.getTaskList)
	g.POST("tasks/", s.createTask)
	g.GET("tasks/kanban/", s.getKanbanBoard)

	taskGroup := g.Group("tasks/:taskId", s.TaskMiddleware)
	taskGroup.GET("/", s.getTask)
	taskGroup.PATCH("/", s.updateTask)
	taskGroup.DELETE("/", s.deleteTask)
	taskGroup.POST("/move/", s.moveTask)
	taskGroup.POST("/attachments/", s.addTaskAttachment)
	taskGroup.DELETE("/attachments/:attachmentId/", s.removeTaskAttachment)
}

type requestTaskCreate struct {
	Title       string             `json:"title" validate:"required,taskTitle"`
	Description string             `json:"description"`
	Priority    types.TaskPriority `json:"priority"`
	Status      types.TaskStatus   `json:"status"`
	AssigneeId  uuid.UUID          `json:"assignee_id"`
	ReporterId  uuid.UUID          `json:"reporter_id"`
	SprintId    *uuid.UUID         `json:"sprint_id"`
}

type requestTaskUpdate struct {
	Title       *string             `json:"title" validate:"omitempty,taskTitle"`
	Description *string             `json:"description"`
	Priority    *types.TaskPriority `json:"priority"`
	Status      *types.TaskStatus   `json:"status"`
	AssigneeId  *uuid.UUID          `json:"assignee_id"`

	// Пустая строка отвязывает задачу от спринта.
	SprintId *string `json:"sprint_id"`
}

type requestTaskMove struct {
	Status  types.TaskStatus `json:"status"`
	Comment string           `json:"comment"`
}

// getTaskList godoc
// @id getTaskList
// @Summary Задачи: получение списка задач
// @Description Возвращает список задач с фильтрами по статусу, приоритету, исполнителю, автору, спринту и поиском по названию и описанию.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Статус задачи"
// @Param priority query string false "Приоритет задачи"
// @Param assignee_id query string false "Идентификатор исполнителя"
// @Param reporter_id query string false "Идентификатор автора"
// @Param sprint_id query string false "Идентификатор спринта"
// @Param search query string false "Строка поиска"
// @Param offset query int false "Смещение страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dao.PaginationResponse{result=[]dto.TaskLight} "Список задач"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/ [get]
func (s *Services) getTaskList(c echo.Context) error {
	offset := 0
	limit := 50

	var status, priority, assigneeId, reporterId, sprintId, search string
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		String("status", &status).
		String("priority", &priority).
		String("assignee_id", &assigneeId).
		String("reporter_id", &reporterId).
		String("sprint_id", &sprintId).
		String("search", &search).
		BindError(); err != nil {
		return EErrorDefined(c, apierrors.ErrTaskBadRequest)
	}

	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := s.db.Model(&dao.Task{}).
		Preload("Assignee").
		Preload("Reporter").
		Order("created_at DESC")

	if status != "" {
		if !types.TaskStatus(status).Valid() {
			return EErrorDefined(c, apierrors.ErrInvalidTaskStatus.WithFormattedMessage(status))
		}
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		if !types.TaskPriority(priority).Valid() {
			return EErrorDefined(c, apierrors.ErrInvalidTaskPriority.WithFormattedMessage(priority))
		}
		query = query.Where("priority = ?", priority)
	}
	if assigneeId != "" {
		query = query.Where("assignee_id = ?", assigneeId)
	}
	if reporterId != "" {
		query = query.Where("reporter_id = ?", reporterId)
	}
	if sprintId != "" {
		query = query.Where("sprint_id = ?", sprintId)
	}
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(title) LIKE ? OR lower(description) LIKE ?", pattern, pattern)
	}

	var tasks []dao.Task
	res, err := dao.PaginationRequest(offset, limit, query, &tasks)
	if err != nil {
		return EError(c, err)
	}

	lightTasks := make([]dto.TaskLight, len(tasks))
	for i := range tasks {
		lightTasks[i] = *tasks[i].ToLightDTO()
	}
	res.Result = lightTasks

	return c.JSON(http.StatusOK, res)
}

// createTask godoc
// @id createTask
// @Summary Задачи: создание задачи
// @Description Создает новую задачу и первую запись журнала статусов от имени автора. Если автор не указан, им становится текущий пользователь.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body requestTaskCreate true "Информация о задаче"
// @Success 201 {object} dto.Task "Созданная задача"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Спринт или пользователь не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/ [post]
func (s *Services) createTask(c echo.Context) error {
	user := c.(AuthContext).User

	var req requestTaskCreate
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrTaskBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrTaskValidate)
	}

	if req.ReporterId.IsNil() {
		req.ReporterId = user.ID
	}

	task := dao.Task{
		Id:          dao.GenUUID(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeId:  req.AssigneeId,
		ReporterId:  req.ReporterId,
	}
	if req.SprintId != nil {
		task.SprintId = uuid.NullUUID{UUID: *req.SprintId, Valid: true}
	}

	if err := dao.CreateTask(s.db, &task); err != nil {
		return EError(c, err)
	}

	created, err := dao.GetTask(s.db, task.Id)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusCreated, created.ToDTO())
}

// getKanbanBoard godoc
// @id getKanbanBoard
// @Summary Задачи: канбан-доска
// @Description Возвращает задачи, разложенные по четырем фиксированным колонкам статусов. Пустые колонки присутствуют в ответе.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sprint_id query string false "Идентификатор спринта"
// @Param assignee_id query string false "Идентификатор исполнителя"
// @Success 200 {object} map[string][]dto.TaskLight "Доска"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/kanban/ [get]
func (s *Services) getKanbanBoard(c echo.Context) error {
	query := s.db.Model(&dao.Task{}).
		Preload("Assignee").
		Preload("Reporter").
		Order("created_at")

	if sprintId := c.QueryParam("sprint_id"); sprintId != "" {
		query = query.Where("sprint_id = ?", sprintId)
	}
	if assigneeId := c.QueryParam("assignee_id"); assigneeId != "" {
		query = query.Where("assignee_id = ?", assigneeId)
	}

	var tasks []dao.Task
	if err := query.Find(&tasks).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, dao.GroupTasksByStatus(tasks))
}

// getTask godoc
// @id getTask
// @Summary Задачи: получение задачи
// @Description Возвращает задачу со связями, вложениями и журналом смены статусов в хронологическом порядке.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Success 200 {object} dto.Task "Задача"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/ [get]
func (s *Services) getTask(c echo.Context) error {
	task := c.(TaskContext).Task
	return c.JSON(http.StatusOK, task.ToDTO())
}

// updateTask godoc
// @id updateTask
// @Summary Задачи: обновление задачи
// @Description Частичное обновление полей задачи. Статус через этот метод менять нельзя - для перевода статуса используется отдельный метод move.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Param request body requestTaskUpdate true "Изменяемые поля"
// @Success 200 {object} dto.Task "Обновленная задача"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача, спринт или пользователь не найдены"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/ [patch]
func (s *Services) updateTask(c echo.Context) error {
	task := c.(TaskContext).Task

	var req requestTaskUpdate
	fields, err := BindData(c, &req)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrTaskBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrTaskValidate)
	}

	updates := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		switch field {
		case "title":
			updates["title"] = *req.Title
		case "description":
			updates["description"] = *req.Description
		case "priority":
			updates["priority"] = *req.Priority
		case "status":
			updates["status"] = *req.Status
		case "assignee_id":
			updates["assignee_id"] = *req.AssigneeId
		case "sprint_id":
			if *req.SprintId == "" {
				updates["sprint_id"] = uuid.NullUUID{}
			} else {
				sprintId, err := uuid.FromString(*req.SprintId)
				if err != nil {
					return EErrorDefined(c, apierrors.ErrSprintNotFound)
				}
				updates["sprint_id"] = uuid.NullUUID{UUID: sprintId, Valid: true}
			}
		}
	}

	if err := task.UpdateFields(s.db, updates); err != nil {
		return EError(c, err)
	}

	updated, err := dao.GetTask(s.db, task.Id)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, updated.ToDTO())
}

// deleteTask godoc
// @id deleteTask
// @Summary Задачи: удаление задачи
// @Description Удаляет задачу вместе с журналом статусов и вложениями, включая файлы в хранилище.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Success 204 "Задача удалена"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/ [delete]
func (s *Services) deleteTask(c echo.Context) error {
	task := c.(TaskContext).Task

	if err := s.db.Delete(&task).Error; err != nil {
		return EError(c, err)
	}

	for _, attachment := range task.Attachments {
		assetId, err := uuid.FromString(attachment.Path)
		if err != nil {
			continue
		}
		if err := s.storage.Delete(assetId); err != nil {
			slog.Error("Delete task attachment from storage", "task", task.Id, "asset", assetId, "err", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// moveTask godoc
// @id moveTask
// @Summary Задачи: перевод статуса задачи
// @Description Переводит задачу в новый статус и добавляет запись в журнал. Перевод в текущий статус - no-op. При параллельном изменении возвращается конфликт.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Param request body requestTaskMove true "Новый статус и комментарий"
// @Success 200 {object} dto.Task "Задача после перевода"
// @Failure 400 {object} apierrors.DefinedError "Недопустимый статус"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача не найдена"
// @Failure 409 {object} apierrors.DefinedError "Конфликт параллельного изменения"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/move/ [post]
func (s *Services) moveTask(c echo.Context) error {
	task := c.(TaskContext).Task
	user := c.(TaskContext).User

	var req requestTaskMove
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrTaskBadRequest)
	}

	if err := task.MoveStatus(s.db, req.Status, user.ID, req.Comment); err != nil {
		return EError(c, err)
	}

	moved, err := dao.GetTask(s.db, task.Id)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, moved.ToDTO())
}

// addTaskAttachment godoc
// @id addTaskAttachment
// @Summary Задачи: добавление вложения
// @Description Загружает файл в хранилище и прикрепляет его к задаче. Журнал статусов не затрагивается.
// @Tags Task
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Param file formData file true "Файл вложения"
// @Success 201 {object} dto.TaskAttachment "Созданное вложение"
// @Failure 400 {object} apierrors.DefinedError "Файл не передан"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/attachments/ [post]
func (s *Services) addTaskAttachment(c echo.Context) error {
	task := c.(TaskContext).Task
	user := c.(TaskContext).User

	file, err := c.FormFile("file")
	if err != nil {
		return EErrorDefined(c, apierrors.ErrAttachmentRequired)
	}

	src, err := file.Open()
	if err != nil {
		return EError(c, err)
	}
	defer src.Close()

	assetId := dao.GenUUID()
	contentType := file.Header.Get("Content-Type")
	if err := s.storage.SaveReader(src, file.Size, assetId, contentType); err != nil {
		return EErrorDefined(c, apierrors.ErrAttachmentSaveFailed)
	}

	attachment := dao.TaskAttachment{
		Id:           dao.GenUUID(),
		Filename:     file.Filename,
		Path:         assetId.String(),
		UploadedById: user.ID,
	}
	if err := task.AddAttachment(s.db, &attachment); err != nil {
		return EError(c, err)
	}
	attachment.UploadedBy = user

	return c.JSON(http.StatusCreated, attachment.ToDTO())
}

// removeTaskAttachment godoc
// @id removeTaskAttachment
// @Summary Задачи: удаление вложения
// @Description Удаляет вложение задачи и его файл в хранилище. Журнал статусов не затрагивается.
// @Tags Task
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path string true "Идентификатор задачи"
// @Param attachmentId path string true "Идентификатор вложения"
// @Success 204 "Вложение удалено"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Задача или вложение не найдены"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/tasks/{taskId}/attachments/{attachmentId}/ [delete]
func (s *Services) removeTaskAttachment(c echo.Context) error {
	task := c.(TaskContext).Task

	attachmentId, err := uuid.FromString(c.Param("attachmentId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrAttachmentNotFound)
	}

	attachment, err := task.RemoveAttachment(s.db, attachmentId)
	if err != nil {
		return EError(c, err)
	}

	if assetId, err := uuid.FromString(attachment.Path); err == nil {
		if err := s.storage.Delete(assetId); err != nil {
			slog.Error("Delete task attachment from storage", "task", task.Id, "asset", assetId, "err", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
