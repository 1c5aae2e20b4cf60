package handler

import (
	"context"
	"errors"
	"net/http"

	"catalog-service/internal/sync"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TriggerSync starts a reconciliation run on demand. The run proceeds in
// the background; a run already in progress makes the trigger a no-op.
func TriggerSync(c echo.Context) error {
	log := logger.FromContext(c)

	if syncProcessor.Running() {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "An import run is already in progress",
		})
	}

	go func() {
		// Detached from the request lifecycle: the run outlives the
		// HTTP response.
		if err := syncProcessor.Run(context.Background()); err != nil && !errors.Is(err, sync.ErrRunInProgress) {
			logger.GetLogger().Error("Manually triggered import run failed", zap.Error(err))
		}
	}()

	log.Info("Manual import run triggered")
	return c.JSON(http.StatusAccepted, echo.Map{
		"message": "Import run started",
	})
}
