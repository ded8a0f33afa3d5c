// DAO (Data Access Object) - предоставляет методы для взаимодействия с базой данных.
// Содержит функции для работы с пользователями, спринтами, задачами и журналом статусов.
//
// Основные возможности:
//   - Работа с пользователями: создание, аутентификация, получение информации о пользователях.
//   - Работа со спринтами: валидация временного окна, каскадное удаление.
//   - Работа с задачами: перевод статусов, журнал статусов, вложения.
//   - Генерация UUID и паролей.
package dao

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

// GenUUID генерирует уникальный идентификатор в формате UUID. Не принимает параметров и возвращает UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

func PaginationRequest(offset int, limit int, query *gorm.DB, target any) (res PaginationResponse, err error) {
	// Count query
	if err := query.Session(&gorm.Session{}).Model(target).Count(&res.Count).Error; err != nil {
		return res, err
	}

	// Data query
	if err := query.Offset(offset).Limit(limit).Find(target).Error; err != nil {
		return res, err
	}

	res.Result = target
	res.Limit = limit
	res.Offset = offset

	return res, nil
}

// AddDefaultUser создает учетную запись администратора со сгенерированным паролем. Пароль выводится в лог один раз при создании.
func AddDefaultUser(db *gorm.DB, email string) {
	pass := GenPassword()
	tm := time.Now()
	user := User{
		ID:          GenUUID(),
		Username:    "admin",
		Email:       email,
		Name:        "Administrator",
		Password:    GenPasswordHash(pass),
		Role:        "ADMIN",
		LastActive:  &tm,
		IsActive:    true,
		IsSuperuser: true,
	}

	if err := db.Create(&user).Error; err != nil {
		slog.Error("Create default user", "err", err)
	} else {
		slog.Info("Default user created", "email", email, "password", pass)
	}
}

func GenPassword() string {
	return password.MustGenerate(12, 6, 0, false, false)
}

// Генерация хэша пароля для базы
func GenPasswordHash(password string) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	salt := make([]rune, 32)
	for i := range salt {
		nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		salt[i] = letters[nBig.Int64()]
	}

	return fmt.Sprintf("pbkdf2_sha256$260000$%s$%s",
		string(salt),
		base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte(password), []byte(string(salt)), 260000, 32, sha256.New)),
	)
}

// CheckPasswordHash сверяет пароль с хэшем в формате pbkdf2_sha256$iter$salt$hash.
func CheckPasswordHash(password string, hash string) bool {
	ss := strings.Split(hash, "$")
	if len(ss) == 4 {
		return base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte(password), []byte(ss[2]), 260000, 32, sha256.New)) == ss[3]
	}
	return false
}
