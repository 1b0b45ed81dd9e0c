package apierrors

import (
	"errors"
	"net/http"

	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/model"
)

const (
	InternalServerErr = "INTERNAL_SERVER_ERROR"
	JSONDecodeErr     = "JSON_DECODE_ERROR"
	ValidationErr     = "VALIDATION_ERROR"
	NotFoundErr       = "NOT_FOUND"
	ConflictErr       = "CONFLICT"
	ParamsErr         = "PARAMS_ERROR"
)

// DetailedError is the error payload returned to API clients.
type DetailedError struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Status    int     `json:"-"`
	RequestID *string `json:"requestId,omitempty"`
}

type ErrorMessage struct {
	Error DetailedError `json:"error"`
}

func InternalServerErrorMessage() ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    InternalServerErr,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}}
}

func JSONDecodeErrorMessage() ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    JSONDecodeErr,
		Message: "Can't decode JSON body",
		Status:  http.StatusBadRequest,
	}}
}

func NotFoundErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    NotFoundErr,
		Message: message,
		Status:  http.StatusNotFound,
	}}
}

func ConflictErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    ConflictErr,
		Message: message,
		Status:  http.StatusConflict,
	}}
}

func ValidationErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    ValidationErr,
		Message: message,
		Status:  http.StatusBadRequest,
	}}
}

func ParamsErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Error: DetailedError{
		Code:    ParamsErr,
		Message: message,
		Status:  http.StatusBadRequest,
	}}
}

// TransformToAPIError maps manager errors onto the API error taxonomy.
func TransformToAPIError(err error) ErrorMessage {
	switch {
	case errors.Is(err, manager.ErrTenantNotFound),
		errors.Is(err, manager.ErrMembershipNotFound):
		return NotFoundErrorMessage(err.Error())
	case errors.Is(err, manager.ErrDomainClaimed),
		errors.Is(err, manager.ErrInvalidTransition):
		return ConflictErrorMessage(err.Error())
	case errors.Is(err, manager.ErrInvalidStatus),
		errors.Is(err, manager.ErrTenantNotPro),
		errors.Is(err, model.ErrInvalidMembershipSource),
		errors.Is(err, model.ErrInvalidMembershipStatus):
		return ValidationErrorMessage(err.Error())
	default:
		return InternalServerErrorMessage()
	}
}
