package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"refbot/internal/middleware"
	"refbot/internal/pkg/utils"
	"refbot/internal/repository"
)

// Setup configures the operational HTTP surface: a health check and a
// read-only statistics endpoint for dashboards.
func Setup(e *echo.Echo, db *gorm.DB, logger *zap.Logger, apiKey string) {
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	statsRepo := repository.NewStatsRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	apiGroup.GET("/stats", func(c echo.Context) error {
		stats, err := statsRepo.Get()
		if err != nil {
			logger.Error("failed to load stats", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		}
		return c.JSON(http.StatusOK, stats)
	})

	apiGroup.GET("/channels", func(c echo.Context) error {
		channels, err := channelRepo.FindAll()
		if err != nil {
			logger.Error("failed to load channels", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load channels"})
		}
		return c.JSON(http.StatusOK, channels)
	})

	apiGroup.GET("/users/:id/payments", func(c echo.Context) error {
		id := c.Param("id")
		if !utils.IsNumeric(id) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		}
		requests, err := paymentRepo.FindByUserID(utils.ParseInt64(id, 0))
		if err != nil {
			logger.Error("failed to load payout requests", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load payout requests"})
		}
		return c.JSON(http.StatusOK, requests)
	})

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
