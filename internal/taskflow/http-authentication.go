// Пакет для аутентификации и авторизации пользователей в приложении Taskflow.
// Обеспечивает безопасный доступ к ресурсам, используя JWT и куки.
//
// Основные возможности:
//   - Регистрация и вход пользователей по email и паролю.
//   - Генерация и проверка токенов доступа (JWT) с поддержкой обновления.
//   - Поддержка различных схем аутентификации (Bearer, Cookies).
package taskflow

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/apierrors"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Authentication struct {
	db *gorm.DB
}

type AuthContext struct {
	echo.Context
	User         *dao.User
	AccessToken  *Token
	RefreshToken *Token
}

type AuthConfig struct {
	Secret  []byte
	DB      *gorm.DB
	Skipper middleware.Skipper
}

func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}

			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			var refreshToken *Token
			var accessToken *Token

			schema, tokenString, ok := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if !ok {
				// Cookie token
				schema = "Cookies"
				if accessCookie, err := c.Cookie("access_token"); err == nil && accessCookie != nil {
					accessToken = new(Token)
					accessToken.SignedString = accessCookie.Value
					accessToken.Type = "access"
				}

				if refreshCookie, err := c.Cookie("refresh_token"); err == nil && refreshCookie != nil {
					refreshToken = new(Token)
					refreshToken.SignedString = refreshCookie.Value
					refreshToken.Type = "refresh"
				}

				if refreshToken == nil && accessToken == nil {
					return EErrorDefined(c, apierrors.ErrTokenMissing)
				}
			}
			schema = strings.TrimSpace(schema)

			if schema != "Cookies" {
				accessToken = new(Token)
				accessToken.SignedString = strings.TrimSpace(tokenString)
				accessToken.Type = "access"
			}

			keyFunc := func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return config.Secret, nil
			}

			var accessError error
			if accessToken != nil {
				accessToken.JWT, accessError = jwt.Parse(accessToken.SignedString, keyFunc)
			}

			if refreshToken != nil {
				var refreshError error
				refreshToken.JWT, refreshError = jwt.Parse(refreshToken.SignedString, keyFunc)
				if refreshError != nil {
					if errors.Is(refreshError, jwt.ErrTokenExpired) {
						refreshToken = nil
					} else {
						return EErrorDefined(c, apierrors.ErrTokenInvalid)
					}
				}
			}

			var user *dao.User
			var err error

			// Prolong if expired
			if errors.Is(accessError, jwt.ErrTokenExpired) || accessToken == nil {
				accessToken, user, err = config.tokenProlong(c, refreshToken)
				if accessToken == nil || user == nil {
					return err
				}
			} else if accessError != nil {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			} else {
				user, err = userFromClaims(config.DB, accessToken.JWT, "access")
				if err != nil {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
			}

			// If user blocked
			if !user.IsActive {
				clearAuthCookies(c)
				return EErrorDefined(c, apierrors.ErrUserBlocked)
			}

			tm := time.Now()
			if err := config.DB.Model(user).UpdateColumn("last_active", tm).Error; err != nil {
				slog.Error("Update user last active", "user", user.ID, "err", err)
			}
			user.LastActive = &tm

			return next(AuthContext{c, user, accessToken, refreshToken})
		}
	}
}

// tokenProlong выдает новую пару токенов по действующему refresh токену.
func (a *AuthConfig) tokenProlong(c echo.Context, token *Token) (*Token, *dao.User, error) {
	if token == nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrRefreshTokenExpired)
	}

	user, err := userFromClaims(a.DB, token.JWT, "refresh")
	if err != nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := createTokenPair(user.ID.String())
	if err != nil {
		return nil, nil, EError(c, err)
	}

	setAuthCookies(c, accessToken, refreshToken)

	return accessToken, user, nil
}

// RolesMiddleware пропускает только пользователей с одной из перечисленных ролей. Суперпользователь проходит всегда.
func RolesMiddleware(roles ...types.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(AuthContext).User
			if user.IsSuperuser {
				return next(c)
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return EErrorDefined(c, apierrors.ErrInsufficientRole)
		}
	}
}

func userFromClaims(db *gorm.DB, token *jwt.Token, tokenType string) (*dao.User, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apierrors.ErrTokenInvalid
	}

	if claims["token_type"] != tokenType {
		return nil, apierrors.ErrWrongTokenType
	}

	rawId, ok := claims["user_id"].(string)
	if !ok {
		return nil, apierrors.ErrTokenInvalid
	}
	userId, err := uuid.FromString(rawId)
	if err != nil {
		return nil, apierrors.ErrTokenInvalid
	}

	return dao.GetUser(db, userId)
}

func AddAuthenticationServices(db *gorm.DB, g *echo.Echo) *Authentication {
	ret := &Authentication{db}

	g.POST("api/sign-up/", ret.signUp)
	g.POST("api/sign-in/", ret.emailLogin)
	return ret
}

type SignUpRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUp godoc
// @id signUp
// @Summary Пользователи (управление доступом): регистрация пользователя
// @Description Создает учетную запись по имени пользователя, email и паролю
// @Tags Users
// @Accept json
// @Produce json
// @Param data body SignUpRequest true "Данные для регистрации"
// @Success 201 {object} dto.User "Созданный пользователь"
// @Failure 400 {object} apierrors.DefinedError "Некорректные данные запроса"
// @Failure 403 {object} apierrors.DefinedError "Регистрация отключена"
// @Failure 409 {object} apierrors.DefinedError "Пользователь уже существует"
// @Router /api/sign-up [post]
func (a *Authentication) signUp(c echo.Context) error {
	if !cfg.SignUpEnable {
		return EErrorDefined(c, apierrors.ErrSignupDisabled)
	}

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrValidation.WithFormattedMessage(err))
	}

	req.Email = strings.ToLower(req.Email)
	if !ValidateEmail(req.Email) {
		return EErrorDefined(c, apierrors.ErrUserBadRequest)
	}

	var count int64
	if err := a.db.Model(&dao.User{}).
		Where("email = ?", req.Email).
		Or("username = ?", req.Username).
		Count(&count).Error; err != nil {
		return EError(c, err)
	}
	if count > 0 {
		return EErrorDefined(c, apierrors.ErrUserAlreadyExist)
	}

	user := dao.User{
		ID:       dao.GenUUID(),
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: dao.GenPasswordHash(req.Password),
		IsActive: true,
	}

	if err := a.db.Create(&user).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusCreated, user.ToDTO())
}

// emailLogin godoc
// @id emailLogin
// @Summary Пользователи (управление доступом): вход пользователя
// @Description Аутентифицирует пользователя с использованием email и пароля
// @Tags Users
// @Accept json
// @Produce json
// @Param data body LoginRequest true "Данные для входа пользователя"
// @Success 200 {object} map[string]interface{} "Токены доступа и информация о пользователе"
// @Failure 400 {object} apierrors.DefinedError "Некорректные данные запроса"
// @Failure 401 {object} apierrors.DefinedError "Неудачный вход в систему"
// @Failure 500 {object} apierrors.DefinedError "Внутренняя ошибка сервера"
// @Router /api/sign-in [post]
func (a *Authentication) emailLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	req.Email = strings.ToLower(req.Email)

	if req.Email == "" || req.Password == "" {
		return EErrorDefined(c, apierrors.ErrLoginCredentialsRequired)
	}

	var user dao.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrFailedLogin)
		}
		return EError(c, err)
	}

	if !user.IsActive {
		return EErrorDefined(c, apierrors.ErrUserBlocked)
	}

	if !dao.CheckPasswordHash(req.Password, user.Password) {
		return EErrorDefined(c, apierrors.ErrFailedLogin)
	}

	tm := time.Now()
	user.LastActive = &tm
	if err := a.db.Model(&user).UpdateColumn("last_active", tm).Error; err != nil {
		return EError(c, err)
	}

	accessToken, refreshToken, err := createTokenPair(user.ID.String())
	if err != nil {
		return EError(c, err)
	}

	setAuthCookies(c, accessToken, refreshToken)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token":  accessToken.SignedString,
		"refresh_token": refreshToken.SignedString,
		"user":          user.ToDTO(),
	})
}
