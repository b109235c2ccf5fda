package service

import (
	"errors"
	"fmt"

	"taskBoard/internal/access"
	"taskBoard/internal/models/task"

	"github.com/google/uuid"
)

const CodeNotFound = "NOT_FOUND"
const CodeValidation = "VALIDATION_ERROR"
const CodeAccessDenied = "ACCESS_DENIED"
const CodeDuplicateGrant = "DUPLICATE_GRANT"
const CodeInvalidTransition = "INVALID_TRANSITION"
const CodeAlreadyArchived = "ALREADY_ARCHIVED"
const CodeUsernameTaken = "USERNAME_TAKEN"
const CodeUserOwnsBoards = "USER_OWNS_BOARDS"
const CodeInvalidCredentials = "INVALID_CREDENTIALS"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

type Resource string

const ResourceUser Resource = "Пользователь"
const ResourceBoard Resource = "Доска"
const ResourceAccess Resource = "Доступ"
const ResourceTask Resource = "Задача"

func NewNotFound(resource Resource, id uuid.UUID) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id.String(),
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewAccessDenied(c access.Capability, boardID uuid.UUID) *BusinessError {
	return &BusinessError{
		Code:    CodeAccessDenied,
		Message: fmt.Sprintf("Недостаточно прав (%s) для доски %s", c, boardID),
		Details: map[string]any{
			"capability": string(c),
			"board_id":   boardID.String(),
		},
	}
}

func NewDuplicateGrant(boardID, userID uuid.UUID) *BusinessError {
	return NewBusinessError(CodeDuplicateGrant, "Пользователь уже имеет доступ к доске",
		ToDetail("board_id", boardID.String()),
		ToDetail("user_id", userID.String()),
	)
}

func NewInvalidTransition(from, to task.Status) *BusinessError {
	return NewBusinessError(CodeInvalidTransition,
		fmt.Sprintf("Переход статуса %s -> %s запрещён", from, to),
		ToDetail("from", string(from)),
		ToDetail("to", string(to)),
	)
}

func HasCode(err error, code string) bool {
	var be *BusinessError
	if !errors.As(err, &be) {
		return false
	}
	return be.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsAccessDenied проверяет отказ по конкретной возможности
func IsAccessDenied(err error, c access.Capability) bool {
	var be *BusinessError
	if !errors.As(err, &be) || be.Code != CodeAccessDenied {
		return false
	}
	return be.Details["capability"] == string(c)
}
