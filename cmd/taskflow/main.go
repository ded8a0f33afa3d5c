// Основной пакет приложения Taskflow. Отвечает за запуск приложения, инициализацию базы данных, миграцию моделей и запуск основного сервера приложения.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aisa-it/taskflow/internal/taskflow"
	"github.com/aisa-it/taskflow/internal/taskflow/config"
	"github.com/aisa-it/taskflow/internal/taskflow/dao"
	"github.com/aisa-it/taskflow/internal/taskflow/gormlogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

var models = []any{&dao.User{}, &dao.Sprint{}, &dao.Task{}, &dao.TaskAttachment{}, &dao.TaskHistory{}}

// Пример запуска: go run main.go --noMigration --trace
func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	slog.Info("Taskflow start.")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: false, // disables implicit prepared statement usage
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := db.AutoMigrate(models...); err != nil {
			slog.Error("Migration failed", "err", err)
			os.Exit(1)
		}
	}

	var usersExist bool
	if err := db.Model(&dao.User{}).
		Select("EXISTS(?)",
			db.Model(&dao.User{}).Select("1"),
		).
		Find(&usersExist).Error; err != nil {
		slog.Error("Fail count users in DB", "err", err)
		os.Exit(1)
	}

	if !usersExist {
		if cfg.DefaultUserEmail == "" {
			slog.Error("Default email not preset")
			os.Exit(1)
		}
		slog.Info("Creating default user", "email", cfg.DefaultUserEmail)
		dao.AddDefaultUser(db, cfg.DefaultUserEmail)
	}

	taskflow.Server(db, cfg, version)
}

// PrintBanner выводит заголовок приложения с версией. Использует color codes для выделения версии.
func PrintBanner() {
	banner := `
 _____         _     __ _
|_   _|_ _ ___| | __/ _| | _____      __
  | |/ _  / __| |/ / |_| |/ _ \ \ /\ / /
  | | (_| \__ \   <|  _| | (_) \ V  V /
  |_|\__,_|___/_|\_\_| |_|\___/ \_/\_/  %s
Minimalist task tracking backend
----------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
