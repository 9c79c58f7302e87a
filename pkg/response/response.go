package response

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// JSON writes a successful envelope.
func JSON(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// Message writes a successful envelope that carries no data.
func Message(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: true, Message: message})
}

// Fail writes a failure envelope. detail is only included when non-nil and is
// meant for development builds.
func Fail(c echo.Context, status int, message string, detail interface{}) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Error: detail})
}
