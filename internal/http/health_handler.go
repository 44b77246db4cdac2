package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"user-mgmt/internal/db"
)

// HealthHandler responde el estado del servicio y su base de datos.
type HealthHandler struct {
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func NewHealthHandler(logger *zap.Logger, pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{logger: logger, pool: pool}
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.pool != nil {
		if err := db.Ping(c.Request.Context(), h.pool); err != nil {
			h.logger.Warn("db ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
