package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope is the JSend body every API route answers with.
type envelope struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Status: "success", Data: data})
}

func fail(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, envelope{Status: "fail", Message: message, Data: data})
}

func failValidation(c echo.Context, fieldErrors map[string]string) error {
	return fail(c, http.StatusBadRequest, "Validation failed", map[string]any{
		"validation_errors": fieldErrors,
	})
}

func failUnauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Unauthorized", nil)
}

func failSyncBusy(c echo.Context) error {
	return fail(c, http.StatusConflict, "A sync is already running", nil)
}

func failSyncDisabled(c echo.Context) error {
	return fail(c, http.StatusServiceUnavailable, "Meetup sync is disabled", nil)
}

// failProvider reports an upstream outage while still returning what the run managed to do.
func failProvider(c echo.Context, message string, partial syncView) error {
	return fail(c, http.StatusBadGateway, message, partial)
}

// internalError hides the cause; the request id ties the response to the server log line.
func internalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, envelope{
		Status:    "error",
		Message:   message,
		Code:      http.StatusInternalServerError,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
