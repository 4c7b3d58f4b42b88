package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes surfaced to callers.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeDuplicateCollaborator = "DUPLICATE_COLLABORATOR"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeInvalidState          = "INVALID_STATE"
	CodeAttachment            = "ATTACHMENT_ERROR"
	CodeStageLocked           = "STAGE_LOCKED"
	CodeNotFound              = "NOT_FOUND"
	CodeInternal              = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details string            `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields maps a field name to its validation message.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError reports one message per offending field.
func NewFieldValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "The given data was invalid",
		Fields:  fields,
	}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{
		Code:    CodePermissionDenied,
		Message: message,
	}
}

func NewDuplicateCollaboratorError(message string) *AppError {
	return &AppError{
		Code:    CodeDuplicateCollaborator,
		Message: message,
		Fields:  map[string]string{"email": message},
	}
}

func NewUserNotFoundError(email string) *AppError {
	msg := fmt.Sprintf("No registered user found with email %s", email)
	return &AppError{
		Code:    CodeUserNotFound,
		Message: msg,
		Fields:  map[string]string{"email": msg},
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

func NewAttachmentError(err error) *AppError {
	return &AppError{
		Code:    CodeAttachment,
		Message: "The attachment could not be processed",
		Err:     err,
	}
}

func NewStageLockedError(message string) *AppError {
	return &AppError{
		Code:    CodeStageLocked,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or INTERNAL_ERROR.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusForCode maps an error code to an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodePermissionDenied:
		return fiber.StatusForbidden
	case CodeNotFound, CodeUserNotFound:
		return fiber.StatusNotFound
	case CodeDuplicateCollaborator, CodeInvalidState:
		return fiber.StatusConflict
	case CodeAttachment:
		return fiber.StatusUnprocessableEntity
	case CodeStageLocked:
		return fiber.StatusLocked
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Fields: appErr.Fields,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		}
	}

	return c.Status(status).JSON(response)
}
