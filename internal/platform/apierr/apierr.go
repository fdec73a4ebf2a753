package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model (books/loans/users/auth 共通) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidState    Code = "INVALID_STATE" // 業務ルール違反（貸出不可・自分の本・評価済みなど）
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeConflict        Code = "CONFLICT" // CAS 競合・一意制約違反
	CodeInternal        Code = "INTERNAL"
)

// FieldError は入力検証エラー1件分
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIError struct {
	Code    Code
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func Invalid(msg string) *APIError         { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func InvalidState(msg string) *APIError    { return &APIError{Code: CodeInvalidState, Message: msg} }
func NotFound(msg string) *APIError        { return &APIError{Code: CodeNotFound, Message: msg} }
func Forbidden(msg string) *APIError       { return &APIError{Code: CodeForbidden, Message: msg} }
func Unauthenticated(msg string) *APIError { return &APIError{Code: CodeUnauthenticated, Message: msg} }
func Conflict(msg string) *APIError        { return &APIError{Code: CodeConflict, Message: msg} }
func Internal(msg string) *APIError        { return &APIError{Code: CodeInternal, Message: msg} }

// InvalidFields builds a validation error carrying per-field details.
func InvalidFields(fields []FieldError) *APIError {
	msg := "invalid request"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &APIError{Code: CodeInvalidArgument, Message: msg, Fields: fields}
}

// CodeOf returns the code carried by err, CodeInternal for anything else.
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeInvalidState:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
