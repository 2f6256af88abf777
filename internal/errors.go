package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingOrganization ErrorCode = "MISSING_ORGANIZATION"
	ErrCodeMissingRowReference ErrorCode = "MISSING_ROW_REFERENCE"
	ErrCodeInvalidRow          ErrorCode = "INVALID_ROW"
	ErrCodeMissingNationalID   ErrorCode = "MISSING_NATIONAL_ID"
	ErrCodeMissingFields       ErrorCode = "MISSING_FIELDS"
	ErrCodeInvalidRole         ErrorCode = "INVALID_ROLE"

	ErrCodeRecordNotFound        ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeOrganizationForbidden ErrorCode = "ORGANIZATION_FORBIDDEN"
	ErrCodeAdminRequired         ErrorCode = "ADMIN_REQUIRED"

	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"

	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionRevoked     ErrorCode = "SESSION_REVOKED"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so wrapped copies of the sentinels below still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy, the package level sentinels are shared.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Datos inválidos",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrMissingOrganization   = NewValidationError("Falta escuela", ErrCodeMissingOrganization)
	ErrMissingRowReference   = NewValidationError("Faltan escuela o fila para actualizar", ErrCodeMissingRowReference)
	ErrInvalidRow            = NewValidationError("La fila debe ser mayor o igual a 2", ErrCodeInvalidRow)
	ErrMissingNationalID     = NewValidationError("Debe enviar cédula", ErrCodeMissingNationalID)
	ErrMissingRecordFields   = NewValidationError("Escuela, estudiante y cédula son obligatorios", ErrCodeMissingFields)
	ErrRecordNotFound        = NewNotFoundError("Registro no encontrado", ErrCodeRecordNotFound)
	ErrOrganizationForbidden = NewForbiddenError("No autorizado para esa escuela", ErrCodeOrganizationForbidden)
	ErrAdminRequired         = NewForbiddenError("Solo administradores", ErrCodeAdminRequired)

	ErrUserNotFound      = NewNotFoundError("Usuario no encontrado", ErrCodeUserNotFound)
	ErrUserAlreadyExists = NewConflictError("Ese usuario ya existe", ErrCodeUserAlreadyExists)
	ErrInvalidRole       = NewValidationError("El rol debe ser admin o user", ErrCodeInvalidRole)

	ErrUnauthenticated    = NewUnauthorizedError("No autenticado", ErrCodeUnauthenticated)
	ErrInvalidCredentials = NewUnauthorizedError("Usuario o contraseña incorrectos", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Sesión inválida", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("La sesión expiró", ErrCodeTokenExpired)
	ErrSessionRevoked     = NewUnauthorizedError("La sesión fue cerrada", ErrCodeSessionRevoked)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StoreError passes AppErrors through and wraps anything else as an upstream failure
// whose cause is kept for logging only.
func StoreError(message string, err error) error {
	if _, ok := IsAppError(err); ok {
		return err
	}
	return NewExternalError(message, ErrCodeStoreUnavailable, err)
}
