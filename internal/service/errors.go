package service

import (
	"errors"
	"fmt"
)

const CodeNotFound = "NOT_FOUND"
const CodeValidation = "VALIDATION_ERROR"
const CodeKindMismatch = "KIND_MISMATCH"
const CodeInvalidReorder = "INVALID_REORDER"

type Resource string

const ResourceList Resource = "список"
const ResourceTemplate Resource = "шаблон"
const ResourceTodo Resource = "задача"
const ResourceTextItem Resource = "запись"

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

func NewNotFound(resource Resource, id int64) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %d не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewKindMismatch(listID int64, want, got string) *BusinessError {
	return NewBusinessError(CodeKindMismatch,
		fmt.Sprintf("список %d имеет тип %s, ожидался %s", listID, got, want),
		ToDetail("id", listID),
		ToDetail("expected", want),
		ToDetail("actual", got),
	)
}

func NewInvalidReorder(view View, reason string) *BusinessError {
	return NewBusinessError(CodeInvalidReorder,
		fmt.Sprintf("новый порядок для %s не совпадает с текущим набором: %s", view, reason),
		ToDetail("view", view),
		ToDetail("reason", reason),
	)
}

// CodeOf возвращает код бизнес-ошибки или пустую строку
func CodeOf(err error) string {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
