package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck returns the service health status
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
