package reporting

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/curenation/hms/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the stats endpoint. mw should restrict it to admins.
func (h *Handler) RegisterRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	api.GET("/appointments/stats/summary", h.GetSummary, mw...)
}

func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, sum, "")
}
