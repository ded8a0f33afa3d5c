package taskflow

import (
	"net/http"
	"strings"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/dto"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm/clause"
)

type UserContext struct {
	AuthContext
	TargetUser dao.User
}

func (s *Services) UserMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userId, err := uuid.FromString(c.Param("userId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrUserNotFound)
		}

		user, err := dao.GetUser(s.db, userId)
		if err != nil {
			return EError(c, err)
		}

		return next(UserContext{c.(AuthContext), *user})
	}
}

func (s *Services) AddUserServices(g *echo.Group) {
	g.GET("users/", s.getUserList, RolesMiddleware(types.RoleAdmin, types.RoleManager))
	g.GET("users/me/", s.getMe)
	g.POST("users/me/password/", s.changeMyPassword)

	userGroup := g.Group("users/:userId", s.UserMiddleware)
	userGroup.GET("/", s.getUser)
	userGroup.PATCH("/", s.updateUser)
	userGroup.GET("/tasks/", s.getUserAssignedTasks)
	userGroup.GET("/reported/", s.getUserReportedTasks)
}

type requestUserUpdate struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Username       *string         `json:"username" validate:"omitempty,username"`
	Role           *types.UserRole `json:"role"`
	ProfilePicture *string         `json:"profile_picture"`
}

type requestChangePassword struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// getUserList godoc
// @id getUserList
// @Summary Пользователи: получение списка пользователей
// @Description Возвращает список всех активных пользователей. Доступно администраторам и менеджерам.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.UserLight "Список пользователей"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 403 {object} apierrors.DefinedError "Недостаточно прав"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/users/ [get]
func (s *Services) getUserList(c echo.Context) error {
	var users []dao.User
	if err := s.db.Where("is_active = true").Order("username").Find(&users).Error; err != nil {
		return EError(c, err)
	}

	res := make([]dto.UserLight, len(users))
	for i := range users {
		res[i] = *users[i].ToLightDTO()
	}
	return c.JSON(http.StatusOK, res)
}

// getMe godoc
// @id getMe
// @Summary Пользователи: текущий пользователь
// @Description Возвращает профиль аутентифицированного пользователя.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.User "Профиль пользователя"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Router /api/auth/users/me/ [get]
func (s *Services) getMe(c echo.Context) error {
	user := c.(AuthContext).User
	return c.JSON(http.StatusOK, user.ToDTO())
}

// changeMyPassword godoc
// @id changeMyPassword
// @Summary Пользователи: смена пароля
// @Description Меняет пароль текущего пользователя после проверки старого пароля.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body requestChangePassword true "Старый и новый пароли"
// @Success 204 "Пароль изменен"
// @Failure 400 {object} apierrors.DefinedError "Старый пароль не подходит"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/users/me/password/ [post]
func (s *Services) changeMyPassword(c echo.Context) error {
	user := c.(AuthContext).User

	var req requestChangePassword
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err))
	}

	if !dao.CheckPasswordHash(req.OldPassword, user.Password) {
		return EErrorDefined(c, apierrors.ErrWrongPassword)
	}

	if err := s.db.Model(user).UpdateColumn("password", dao.GenPasswordHash(req.NewPassword)).Error; err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// getUser godoc
// @id getUser
// @Summary Пользователи: получение пользователя
// @Description Возвращает профиль пользователя по идентификатору.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} dto.User "Профиль пользователя"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Пользователь не найден"
// @Router /api/auth/users/{userId}/ [get]
func (s *Services) getUser(c echo.Context) error {
	user := c.(UserContext).TargetUser
	return c.JSON(http.StatusOK, user.ToDTO())
}

// updateUser godoc
// @id updateUser
// @Summary Пользователи: обновление пользователя
// @Description Частичное обновление профиля пользователя.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "Идентификатор пользователя"
// @Param request body requestUserUpdate true "Изменяемые поля"
// @Success 200 {object} dto.User "Обновленный профиль"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Пользователь не найден"
// @Failure 409 {object} apierrors.DefinedError "Email или имя пользователя заняты"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/users/{userId}/ [patch]
func (s *Services) updateUser(c echo.Context) error {
	user := c.(UserContext).TargetUser

	var req requestUserUpdate
	fields, err := BindData(c, &req)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrUserBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err))
	}

	for _, field := range fields {
		switch field {
		case "name":
			user.Name = *req.Name
		case "email":
			email := strings.ToLower(*req.Email)
			if !ValidateEmail(email) {
				return EErrorDefined(c, apierrors.ErrUserBadRequest)
			}
			var count int64
			if err := s.db.Model(&dao.User{}).Where("email = ?", email).Where("id != ?", user.ID).Count(&count).Error; err != nil {
				return EError(c, err)
			}
			if count > 0 {
				return EErrorDefined(c, apierrors.ErrEmailTaken)
			}
			user.Email = email
		case "username":
			var count int64
			if err := s.db.Model(&dao.User{}).Where("username = ?", *req.Username).Where("id != ?", user.ID).Count(&count).Error; err != nil {
				return EError(c, err)
			}
			if count > 0 {
				return EErrorDefined(c, apierrors.ErrUsernameTaken)
			}
			user.Username = *req.Username
		case "role":
			if !req.Role.Valid() {
				return EErrorDefined(c, apierrors.ErrUnsupportedRole.WithFormattedMessage(*req.Role))
			}
			user.Role = *req.Role
		case "profile_picture":
			user.ProfilePicture = *req.ProfilePicture
		}
	}

	if len(fields) > 0 {
		if err := s.db.Omit(clause.Associations).Select(fields).Updates(&user).Error; err != nil {
			return EError(c, err)
		}
	}

	return c.JSON(http.StatusOK, user.ToDTO())
}

func (s *Services) userTaskList(c echo.Context, column string) error {
	user := c.(UserContext).TargetUser

	var tasks []dao.Task
	if err := s.db.
		Preload("Assignee").
		Preload("Reporter").
		Where(column+" = ?", user.ID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return EError(c, err)
	}

	res := make([]dto.TaskLight, len(tasks))
	for i := range tasks {
		res[i] = *tasks[i].ToLightDTO()
	}
	return c.JSON(http.StatusOK, res)
}

// getUserAssignedTasks godoc
// @id getUserAssignedTasks
// @Summary Пользователи: задачи пользователя
// @Description Возвращает задачи, в которых пользователь назначен исполнителем.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {array} dto.TaskLight "Список задач"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Пользователь не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/users/{userId}/tasks/ [get]
func (s *Services) getUserAssignedTasks(c echo.Context) error {
	return s.userTaskList(c, "assignee_id")
}

// getUserReportedTasks godoc
// @id getUserReportedTasks
// @Summary Пользователи: созданные пользователем задачи
// @Description Возвращает задачи, автором которых является пользователь.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {array} dto.TaskLight "Список задач"
// @Failure 401 {object} apierrors.DefinedError "Необходима авторизация"
// @Failure 404 {object} apierrors.DefinedError "Пользователь не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/users/{userId}/reported/ [get]
func (s *Services) getUserReportedTasks(c echo.Context) error {
	return s.userTaskList(c, "reporter_id")
}
