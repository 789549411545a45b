package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Healthz reports that the process is up.
//
//	@Summary	Liveness probe
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz reports whether the database answers.
//
//	@Summary	Readiness probe
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	ErrorResponse
//	@Router		/readyz [get]
func (h *Handler) Readyz(c *gin.Context) {
	if h.pinger == nil {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.pinger.PingContext(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		errorJSON(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
