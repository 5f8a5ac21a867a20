package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Helpers producing the remote campaign service's wire shapes. The hosted
// backend answers with a bare {"message": ...} on success and
// {"status": "error", "error": ...} on failure; the simulator mirrors that
// rather than inventing its own envelope.

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func Message(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: message})
}

func Created(c echo.Context, message string) error {
	return c.JSON(http.StatusCreated, MessageResponse{Message: message})
}

func OK(c echo.Context, body any) error {
	return c.JSON(http.StatusOK, body)
}

func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: message})
}

func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Error: message})
}

func Conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Error: message})
}

func InternalServerError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Status: "error", Error: err.Error()})
}

// PlainNotFound answers with a bare text body, the way the live service does
// for campaigns that have no execution data yet.
func PlainNotFound(c echo.Context, text string) error {
	return c.String(http.StatusNotFound, text)
}
