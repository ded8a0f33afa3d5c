// Пакет taskflow предоставляет основные компоненты трекера задач: HTTP API для работы с задачами, спринтами и пользователями, аутентификацию, файловое хранилище вложений и фоновые задачи обслуживания.
//
// Основные возможности:
//   - Управление задачами и журналом смены их статусов.
//   - Управление спринтами и их задачами.
//   - Аутентификация пользователей по JWT.
//   - Хранение вложений задач в Minio или на локальном диске.
//   - Метрики Prometheus и фоновые cron-задачи.
package taskflow

// @title Taskflow API
// @version 1.0
// @description REST API трекера задач.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @BasePath /
// @query.collection.format multi
import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow/config"
	"github.com/aisa-it/taskflow/internal/taskflow/cronmanager"
	filestorage "github.com/aisa-it/taskflow/internal/taskflow/file-storage"
	"github.com/aisa-it/taskflow/internal/taskflow/maintenance"
	"github.com/aisa-it/taskflow/internal/taskflow/types"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Services struct {
	db      *gorm.DB
	storage filestorage.FileStorage
}

var cfg *config.Config
var appVersion string

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "Taskflow")
		return next(c)
	}
}

func Server(db *gorm.DB, c *config.Config, version string) {
	cfg = c
	appVersion = version

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	var storage filestorage.FileStorage
	var err error
	if cfg.AWSEndpoint != "" {
		storage, err = filestorage.NewMinioStorage(cfg.AWSEndpoint, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.AWSRegion, false, cfg.AWSBucketName)
		if err != nil {
			slog.Error("Fail init Minio connection", "err", err)
			os.Exit(1)
		}
	} else {
		storage, err = filestorage.NewLocalStorage(cfg.UploadsPath)
		if err != nil {
			slog.Error("Fail init local storage", "err", err)
			os.Exit(1)
		}
	}

	jobRegistry := cronmanager.JobRegistry{
		"attachments_clean": cronmanager.Job{
			Func:     maintenance.NewAttachmentsCleaner(db, storage).CleanAttachments,
			Schedule: cfg.AttachmentsCleanSchedule,
		},
	}

	// Create CronManager
	cronManager := cronmanager.NewCronManager(jobRegistry)
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}

	s := &Services{
		db:      db,
		storage: storage,
	}

	// Start cronManager
	cronManager.Start()

	// Create a channel to handle termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		cronManager.Stop()
		os.Exit(0)
	}()

	// Global middlewares
	e.Use(ServerHeader)
	corsConfig := middleware.CORSConfig{
		AllowCredentials: true,
	}
	if cfg.WebURL != nil {
		corsConfig.AllowOrigins = []string{cfg.WebURL.Scheme + "://" + cfg.WebURL.Host}
	}
	e.Use(middleware.CORSWithConfig(corsConfig))
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: "5M",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/auth/tasks/:taskId/attachments/"
		},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddleware("taskflow"))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	AddAuthenticationServices(db, e)

	//services with auth
	apiGroup := e.Group("/api/")

	authGroup := apiGroup.Group("auth/",
		AuthMiddleware(AuthConfig{
			Secret: []byte(cfg.SecretKey),
			DB:     db,
		}),
	)

	s.AddTaskServices(authGroup)
	s.AddSprintServices(authGroup)
	s.AddUserServices(authGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": version,
			"sign_up": cfg.SignUpEnable,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Prometheus metrics
	go func() {
		bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "taskflow",
			Name:      "boot_time",
			Help:      "Server startup time",
		})
		bootTimeGauge.Set(float64(time.Now().UnixMilli()))

		if err := prometheus.Register(bootTimeGauge); err != nil {
			slog.Error("Register boot time gauge", "err", err)
			os.Exit(1)
		}

		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":2112"); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
		}
	}()

	if err := e.Start(":8080"); err != nil {
		slog.Error("Server fail", "err", err)
	}
}

// Проверка email на корректность
func ValidateEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// Генерация пары ключей доступа
func createTokenPair(userId string) (*Token, *Token, error) {
	ta, err := GenJwtToken([]byte(cfg.SecretKey), "access", userId)
	if err != nil {
		return nil, nil, err
	}

	tr, err := GenJwtToken([]byte(cfg.SecretKey), "refresh", userId)
	if err != nil {
		return nil, nil, err
	}
	return ta, tr, err
}

func setAuthCookies(c echo.Context, accessToken *Token, refreshToken *Token) {
	accessCookie := new(http.Cookie)
	accessCookie.Name = "access_token"
	accessCookie.Value = accessToken.SignedString
	accessCookie.HttpOnly = true
	accessCookie.Secure = true
	accessCookie.Path = "/"
	accessCookie.SameSite = http.SameSiteNoneMode
	accessCookie.Expires = time.Now().Add(types.AccessTokenPeriod)
	c.SetCookie(accessCookie)

	refreshCookie := new(http.Cookie)
	refreshCookie.Name = "refresh_token"
	refreshCookie.Value = refreshToken.SignedString
	refreshCookie.HttpOnly = true
	refreshCookie.Secure = true
	refreshCookie.Path = "/"
	refreshCookie.SameSite = http.SameSiteNoneMode
	refreshCookie.Expires = time.Now().Add(types.RefreshTokenPeriod)
	c.SetCookie(refreshCookie)
}

func clearAuthCookies(c echo.Context) {
	accessCookie := new(http.Cookie)
	accessCookie.Name = "access_token"
	accessCookie.Value = ""
	accessCookie.HttpOnly = true
	accessCookie.Secure = true
	accessCookie.Path = "/"
	accessCookie.SameSite = http.SameSiteNoneMode
	accessCookie.MaxAge = -1
	c.SetCookie(accessCookie)

	refreshCookie := new(http.Cookie)
	refreshCookie.Name = "refresh_token"
	refreshCookie.Value = ""
	refreshCookie.HttpOnly = true
	refreshCookie.Secure = true
	refreshCookie.Path = "/"
	refreshCookie.SameSite = http.SameSiteNoneMode
	refreshCookie.MaxAge = -1
	c.SetCookie(refreshCookie)
}

type Token struct {
	JWT          *jwt.Token
	SignedString string
	Type         string
}

// Генерация JWT ключа
func GenJwtToken(secret []byte, tokenType string, userid string) (*Token, error) {
	u, _ := uuid.NewV4()
	claims := jwt.MapClaims{
		"exp":        jwt.NewNumericDate(time.Now().Add(types.AccessTokenPeriod)),
		"iat":        jwt.NewNumericDate(time.Now()),
		"jti":        fmt.Sprintf("%x", u),
		"token_type": tokenType,
		"user_id":    userid,
	}
	if tokenType == "refresh" {
		claims["exp"] = jwt.NewNumericDate(time.Now().Add(types.RefreshTokenPeriod))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString(secret)
	if err != nil {
		return nil, err
	}

	// Waiting for PR https://github.com/golang-jwt/jwt/pull/417
	sigStr := signedString[strings.LastIndex(signedString, ".")+1:]
	sig, err := base64.RawURLEncoding.DecodeString(sigStr)
	if err != nil {
		return nil, err
	}
	token.Signature = sig

	return &Token{
		JWT:          token,
		SignedString: signedString,
		Type:         tokenType,
	}, nil
}

// BindData привязывает тело запроса к структуре с указательными полями и возвращает список json-имен реально переданных полей.
func BindData(c echo.Context, target interface{}) ([]string, error) {
	if err := c.Bind(target); err != nil {
		return nil, fmt.Errorf("failed to bind data from JSON body: %w", err)
	}

	var fields []string
	val := reflect.ValueOf(target).Elem()
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		tagName := strings.Split(field.Tag.Get("json"), ",")[0]
		if tagName == "-" || tagName == "" {
			continue
		}

		fieldValue := val.Field(i)
		if fieldValue.Kind() == reflect.Ptr && fieldValue.IsNil() {
			continue
		}

		fields = append(fields, tagName)
	}
	return fields, nil
}
