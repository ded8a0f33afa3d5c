package taskflow

import (
	"net/http"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/dto"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm/clause"
)

type SprintContext struct {
	AuthContext
	Sprint dao.Sprint
}

func (s *Services) SprintMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sprintId, err := uuid.FromString(c.Param("sprintId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrSprintNotFound)
		}

		sprint, err := dao.GetSprint(s.db, sprintId)
		if err != nil {
			return EError(c, err)
		}

		if err := s.db.
			Preload("Assignee").
			Preload("Reporter").
			Where("sprint_id = ?", sprint.Id).
			Order("created_at").
			Find(&sprint.Tasks).Error; err != nil {
			return EError(c, err)
		}

		return next(SprintContext{c.(AuthContext), *sprint})
	}
}

func (s *Services) AddSprintServices(g *echo.Group) {
	g.GET("sprints/", s.getSprintList)
	g.POST("sprints/", s.createSprint)

	sprintGroup := g.Group("sprints/:sprintId", s.SprintMiddleware)
	sprintGroup.GET("/", s.getSprint)
	sprintGroup.PATCH("/", s.updateSprint)
	sprintGroup.DELETE("/", s.deleteSprint)
}

type requestSprint struct {
	Name        *string             `json:"name" validate:"omitempty,sprintName"`
	Description *string             `json:"description"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
	Status      *types.SprintStatus `json:"status"`
}

// getSprintList godoc
// @id getSprintList
// @Summary Спринты: получение списка спринтов
// @Description Возвращает список всех спринтов с фильтром по статусу.
// @Tags Sprint
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Статус спринта"
// @Success 200 {array} dto.SprintLight "Список спринтов"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/sprints/ [get]
func (s *Services) getSprintList(c echo.Context) error {
	query := s.db.Model(&dao.Sprint{}).Order("start_date")

	if status := types.SprintStatus(c.QueryParam("status")); status != "" {
		if !status.Valid() {
			return EErrorDefined(c, apierrors.ErrInvalidSprintStatus.WithFormattedMessage(status))
		}
		query = query.Where("status = ?", status)
	}

	var sprints []dao.Sprint
	if err := query.Find(&sprints).Error; err != nil {
		return EError(c, err)
	}

	res := make([]dto.SprintLight, len(sprints))
	for i := range sprints {
		res[i] = *sprints[i].ToLightDTO()
	}
	return c.JSON(http.StatusOK, res)
}

// createSprint godoc
// @id createSprint
// @Summary Спринты: создание спринта
// @Description Создает новый спринт. Дата окончания должна быть позже даты начала.
// @Tags Sprint
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body requestSprint true "Информация о спринте"
// @Success 201 {object} dto.Sprint "Созданный спринт"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/sprints/ [post]
func (s *Services) createSprint(c echo.Context) error {
	user := c.(AuthContext).User

	var req requestSprint
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if req.Name == nil || req.StartDate == nil || req.EndDate == nil {
		return EErrorDefined(c, apierrors.ErrSprintValidate)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintValidate)
	}

	sprint := dao.Sprint{
		Id:          dao.GenUUID(),
		Name:        *req.Name,
		StartDate:   *req.StartDate,
		EndDate:     *req.EndDate,
		CreatedById: user.ID,
	}
	if req.Description != nil {
		sprint.Description = *req.Description
	}
	if req.Status != nil {
		sprint.Status = *req.Status
	}

	if err := dao.CreateSprint(s.db, &sprint); err != nil {
		return EError(c, err)
	}
	sprint.CreatedBy = user

	return c.JSON(http.StatusCreated, sprint.ToDTO())
}

// getSprint godoc
// @id getSprint
// @Summary Спринты: получение информации о спринте
// @Description Получение информации о спринте вместе с его задачами.
// @Tags Sprint
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sprintId path string true "Идентификатор спринта"
// @Success 200 {object} dto.Sprint "Спринт"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Спринт не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/sprints/{sprintId}/ [get]
func (s *Services) getSprint(c echo.Context) error {
	sprint := c.(SprintContext).Sprint
	return c.JSON(http.StatusOK, sprint.ToDTO())
}

// updateSprint godoc
// @id updateSprint
// @Summary Спринты: обновление информации о спринте
// @Description Обновление информации о спринте. Инвариант временного окна проверяется после применения полей.
// @Tags Sprint
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sprintId path string true "Идентификатор спринта"
// @Param request body requestSprint true "Информация о спринте"
// @Success 200 {object} dto.Sprint "Спринт"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Спринт не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/sprints/{sprintId}/ [patch]
func (s *Services) updateSprint(c echo.Context) error {
	sprint := c.(SprintContext).Sprint

	var req requestSprint
	fields, err := BindData(c, &req)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintValidate)
	}

	for _, field := range fields {
		switch field {
		case "name":
			if *req.Name == "" {
				return EErrorDefined(c, apierrors.ErrSprintValidate)
			}
			sprint.Name = *req.Name
		case "description":
			sprint.Description = *req.Description
		case "start_date":
			sprint.StartDate = *req.StartDate
		case "end_date":
			sprint.EndDate = *req.EndDate
		case "status":
			if !req.Status.Valid() {
				return EErrorDefined(c, apierrors.ErrInvalidSprintStatus.WithFormattedMessage(*req.Status))
			}
			sprint.Status = *req.Status
		}
	}

	if err := sprint.CheckTimeWindow(); err != nil {
		return EError(c, err)
	}

	if len(fields) > 0 {
		if err := s.db.Omit(clause.Associations).Select(fields).Updates(&sprint).Error; err != nil {
			return EError(c, err)
		}
	}

	return c.JSON(http.StatusOK, sprint.ToDTO())
}

// deleteSprint godoc
// @id deleteSprint
// @Summary Спринты: удаление спринта
// @Description Удаляет спринт и отвязывает от него все задачи. Задачи и их журналы сохраняются.
// @Tags Sprint
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sprintId path string true "Идентификатор спринта"
// @Success 204 "Спринт удален"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Спринт не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/sprints/{sprintId}/ [delete]
func (s *Services) deleteSprint(c echo.Context) error {
	sprint := c.(SprintContext).Sprint

	if err := dao.DeleteSprint(s.db, sprint.Id); err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
