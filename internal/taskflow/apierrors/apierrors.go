// Пакет содержит определения ошибок, используемых в приложении taskflow для обработки ситуаций, возникающих при работе с задачами, спринтами, пользователями и вложениями.  Каждая ошибка имеет код, статус HTTP и описание, что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.  Также включает в себя helper-функцию для форматирования сообщений об ошибках.
//
// Основные возможности:
//   - Определение типов ошибок, связанных с авторизацией, пользователями, спринтами, задачами и вложениями.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Включение сообщений об ошибках для удобной обработки и отображения пользователю.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - auth errors
	ErrFailedLogin              = DefinedError{Code: 1001, StatusCode: http.StatusUnauthorized, Err: "invalid credentials", RuErr: "Неправильный email или пароль"}
	ErrLoginCredentialsRequired = DefinedError{Code: 1002, StatusCode: http.StatusUnauthorized, Err: "both email and password are required", RuErr: "Поля email и пароль не могут быть пустыми"}
	ErrSignupDisabled           = DefinedError{Code: 1003, StatusCode: http.StatusForbidden, Err: "sign up disabled", RuErr: "Регистрация отключена администратором"}
	ErrUserAlreadyExist         = DefinedError{Code: 1004, StatusCode: http.StatusConflict, Err: "user already exist", RuErr: "Пользователь с указанным email или именем уже зарегистрирован в системе"}
	ErrUserBlocked              = DefinedError{Code: 1005, StatusCode: http.StatusUnauthorized, Err: "user is deactivated", RuErr: "Учетная запись деактивирована"}
	ErrWrongPassword            = DefinedError{Code: 1006, StatusCode: http.StatusBadRequest, Err: "wrong current password", RuErr: "Текущий пароль указан неверно"}

	// 11** - session errors
	ErrTokenExpired        = DefinedError{Code: 1101, StatusCode: http.StatusUnauthorized, Err: "token expired", RuErr: "Срок действия токена истек"}
	ErrTokenInvalid        = DefinedError{Code: 1102, StatusCode: http.StatusUnauthorized, Err: "token invalid", RuErr: "Некорректный токен"}
	ErrTokenMissing        = DefinedError{Code: 1103, StatusCode: http.StatusUnauthorized, Err: "auth token is required", RuErr: "Требуется токен авторизации"}
	ErrWrongTokenType      = DefinedError{Code: 1104, StatusCode: http.StatusUnauthorized, Err: "wrong token type", RuErr: "Неверный тип токена"}
	ErrRefreshTokenExpired = DefinedError{Code: 1105, StatusCode: http.StatusUnauthorized, Err: "refresh token expired", RuErr: "Срок действия refresh токена истек. Требуется повторная авторизация"}

	// 2*** - user errors
	ErrUserNotFound     = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "user not found", RuErr: "Пользователь не найден"}
	ErrUserBadRequest   = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "bad user request", RuErr: "Некорректный запрос пользователя"}
	ErrUnsupportedRole  = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "unsupported role '%s'", RuErr: "Роль '%s' не поддерживается"}
	ErrEmailTaken       = DefinedError{Code: 2004, StatusCode: http.StatusConflict, Err: "email is already taken", RuErr: "Указанный email уже занят"}
	ErrUsernameTaken    = DefinedError{Code: 2005, StatusCode: http.StatusConflict, Err: "username is already taken", RuErr: "Указанное имя пользователя уже занято"}
	ErrInsufficientRole = DefinedError{Code: 2006, StatusCode: http.StatusForbidden, Err: "access denied: insufficient permissions", RuErr: "Недостаточно прав для выполнения операции"}

	// 3*** - sprint errors
	ErrSprintNotFound          = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "sprint not found", RuErr: "Спринт не найден"}
	ErrSprintBadRequest        = DefinedError{Code: 3002, StatusCode: http.StatusBadRequest, Err: "bad sprint request", RuErr: "Некорректный запрос спринта"}
	ErrSprintValidate          = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "sprint name, start date and end date are required", RuErr: "Название, дата начала и дата окончания спринта обязательны"}
	ErrInvalidSprintTimeWindow = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "sprint end date must be after start date", RuErr: "Дата окончания спринта должна быть позже даты начала"}
	ErrInvalidSprintStatus     = DefinedError{Code: 3005, StatusCode: http.StatusBadRequest, Err: "invalid sprint status '%s'", RuErr: "Недопустимый статус спринта '%s'"}

	// 4*** - task errors
	ErrTaskNotFound           = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "task not found", RuErr: "Задача не найдена"}
	ErrTaskBadRequest         = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "bad task request", RuErr: "Некорректный запрос задачи"}
	ErrTaskValidate           = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "task title, assignee and reporter are required", RuErr: "Название задачи, исполнитель и автор обязательны"}
	ErrInvalidTaskStatus      = DefinedError{Code: 4004, StatusCode: http.StatusBadRequest, Err: "invalid task status '%s'", RuErr: "Недопустимый статус задачи '%s'"}
	ErrInvalidTaskPriority    = DefinedError{Code: 4005, StatusCode: http.StatusBadRequest, Err: "invalid task priority '%s'", RuErr: "Недопустимый приоритет задачи '%s'"}
	ErrTaskConflict           = DefinedError{Code: 4006, StatusCode: http.StatusConflict, Err: "task was modified concurrently, refetch and retry", RuErr: "Задача изменена параллельным запросом, повторите попытку"}
	ErrTaskStatusUpdateDenied = DefinedError{Code: 4007, StatusCode: http.StatusBadRequest, Err: "status cannot be changed via task update, use move", RuErr: "Статус нельзя изменить через обновление задачи, используйте перевод статуса"}

	// 45** - attachment errors
	ErrAttachmentNotFound   = DefinedError{Code: 4501, StatusCode: http.StatusNotFound, Err: "attachment not found", RuErr: "Вложение не найдено"}
	ErrAttachmentRequired   = DefinedError{Code: 4502, StatusCode: http.StatusBadRequest, Err: "attachment file is required", RuErr: "Файл вложения обязателен"}
	ErrAttachmentSaveFailed = DefinedError{Code: 4503, StatusCode: http.StatusInternalServerError, Err: "failed to save attachment", RuErr: "Не удалось сохранить вложение"}

	// 5*** - generic errors
	ErrGeneric        = DefinedError{Code: 5000, StatusCode: http.StatusInternalServerError, Err: "internal server error", RuErr: "Внутренняя ошибка сервера"}
	ErrBadRequest     = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrValidation     = DefinedError{Code: 5002, StatusCode: http.StatusBadRequest, Err: "validation failed: %s", RuErr: "Ошибка валидации: %s"}
	ErrEntityTooLarge = DefinedError{Code: 5003, StatusCode: http.StatusRequestEntityTooLarge, Err: "request entity too large", RuErr: "Превышен допустимый размер запроса"}
)

// WithFormattedMessage - подставляет аргументы в шаблоны сообщений ошибки.
func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
