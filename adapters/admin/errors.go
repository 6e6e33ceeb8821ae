package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that the requested entity is absent (MyDiscoverer answers 404 with it when
	// no instance is registered).
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that a request parameter does not match the route.
	ErrBadParameter = "bad_parameter"
)

// AdminError is the error body of the admin API, shaped like MyDiscoverer's.
type AdminError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Inner   error  `json:"-"`
}

// NewAdminError creates an AdminError.
func NewAdminError(code, message string, inner error) *AdminError {
	return &AdminError{Code: code, Message: message, Inner: inner}
}

func (e *AdminError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

func (e *AdminError) Unwrap() error {
	return e.Inner
}

// ErrResponse is the JSON body written for a failed request.
type ErrResponse struct {
	Error *AdminError `json:"error,omitempty"`
}

var codeToStatus = map[string]int{
	ErrBadParameter:        http.StatusBadRequest,
	ErrEntityNotFound:      http.StatusNotFound,
	ErrInternalServerError: http.StatusInternalServerError,
}

// RegisterErrorHandler installs the admin error handler on e.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = newErrorHandler(logger)
}

func newErrorHandler(logger log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var adminErr *AdminError
		var he *echo.HTTPError
		status := http.StatusInternalServerError
		switch {
		case errors.As(err, &adminErr):
			if s, ok := codeToStatus[adminErr.Code]; ok {
				status = s
			}
		case errors.As(err, &he):
			status = he.Code
			code := ErrInternalServerError
			if status == http.StatusNotFound {
				code = ErrEntityNotFound
			} else if status < http.StatusInternalServerError {
				code = ErrBadParameter
			}
			m, _ := he.Message.(string)
			adminErr = NewAdminError(code, m, err)
		default:
			adminErr = NewAdminError(ErrInternalServerError, "an internal server error has occurred", err)
		}
		if status >= http.StatusInternalServerError {
			level.Error(logger).Log("msg", "HTTP request error", "path", c.Request().URL.Path, "err", err)
		} else {
			level.Debug(logger).Log("msg", "HTTP request rejected", "path", c.Request().URL.Path, "status", status, "err", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, ErrResponse{Error: adminErr})
	}
}
