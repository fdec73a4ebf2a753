package apierr

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type ErrorBody struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	// フロントはトースト表示に message を使う
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func Body(code Code, msg string) ErrorBody {
	var e ErrorBody
	e.Error.Code = code
	e.Error.Message = msg
	e.Message = msg
	return e
}

// Respond writes err as a JSON error. Unknown and internal errors are logged
// and answered with a generic message.
func Respond(c *gin.Context, op string, err error) {
	var api *APIError
	if !errors.As(err, &api) || api.Code == CodeInternal {
		slog.ErrorContext(c.Request.Context(), op+" failed", "err", err)
		api = Internal("Server error")
	}
	body := Body(api.Code, api.Message)
	body.Errors = api.Fields
	c.JSON(HTTPStatus(api), body)
}

// Abort is Respond for middleware.
func Abort(c *gin.Context, err error) {
	Respond(c, "middleware", err)
	c.Abort()
}

// BindError converts a ShouldBind* failure into a validation error response.
func BindError(c *gin.Context, err error) {
	Respond(c, "bind", FromBindError(err))
}

func FromBindError(err error) *APIError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Invalid("invalid json or missing required fields")
	}
	fields := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return InvalidFields(fields)
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(fe.Param(), "'", ""))
	case "email":
		return f + " must be a valid email"
	default:
		return f + " is invalid"
	}
}

// UseJSONFieldNames makes gin's validator report json tag names ("startDate")
// instead of Go field names.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return sf.Name
		}
		return name
	})
}
