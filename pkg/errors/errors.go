package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternal            = "INTERNAL_ERROR"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeInvalidOperation    = "INVALID_OPERATION"
	CodeSelfVouch           = "SELF_VOUCH"
	CodeAlreadyVoted        = "ALREADY_VOTED"
	CodeChallengeInProgress = "CHALLENGE_IN_PROGRESS"
	CodeInvalidState        = "INVALID_STATE"
	CodeContention          = "CONTENTION"
)

// invalidOperationCodes are rejected business rules. They are final and
// never retried by the transaction runner.
var invalidOperationCodes = map[string]bool{
	CodeInvalidOperation:    true,
	CodeSelfVouch:           true,
	CodeAlreadyVoted:        true,
	CodeChallengeInProgress: true,
	CodeInvalidState:        true,
}

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func InvalidOperation(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidOperation,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func SelfVouch() *AppError {
	return &AppError{
		Code:    CodeSelfVouch,
		Message: "You can't vouch for your own pin",
		Status:  http.StatusBadRequest,
	}
}

func AlreadyVoted() *AppError {
	return &AppError{
		Code:    CodeAlreadyVoted,
		Message: "You have already voted on this challenge",
		Status:  http.StatusConflict,
	}
}

func ChallengeInProgress() *AppError {
	return &AppError{
		Code:    CodeChallengeInProgress,
		Message: "This pin already has a challenge in voting",
		Status:  http.StatusConflict,
	}
}

func InvalidState(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// Contention is surfaced once the transaction retry budget is exhausted.
// It is the only failure a caller may retry.
func Contention(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeContention,
		Message: fmt.Sprintf("%s lost to concurrent updates, try again", operation),
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

func IsInvalidOperation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return invalidOperationCodes[appErr.Code]
	}
	return false
}

func IsContention(err error) bool {
	return Is(err, CodeContention)
}
