// Пакет для валидации данных запросов taskflow.  Содержит валидаторы для полей, таких как название задачи, название спринта и имя пользователя.  Использует библиотеку go-playground/validator для выполнения проверок.
//
// Основные возможности:
//   - Валидация полей данных с использованием предопределенных валидаторов.
//   - Настройка валидаторов для конкретных полей.
package taskflow

import (
	"unicode/utf8"

	"github.com/go-playground/validator"
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("taskTitle", taskTitleValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("sprintName", sprintNameValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("username", usernameValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func taskTitleValidator(fl validator.FieldLevel) bool {
	lenStr := utf8.RuneCountInString(fl.Field().String())
	return lenStr >= 1 && lenStr <= 200
}

func sprintNameValidator(fl validator.FieldLevel) bool {
	lenStr := utf8.RuneCountInString(fl.Field().String())
	return lenStr >= 1 && lenStr <= 100
}

func usernameValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	lenStr := utf8.RuneCountInString(value)
	if lenStr < 3 || lenStr > 30 {
		return false
	}
	for _, r := range value {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
