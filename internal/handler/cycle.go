package handler

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volarb/internal/service"
)

// CycleHandler triggers a trading cycle on demand, outside the cron
// schedule. At most one cycle runs at a time; overlapping requests are
// turned away instead of queued.
type CycleHandler struct {
	Service *service.DailyCycleService
	Logger  *zap.Logger

	running atomic.Bool
}

func (h *CycleHandler) Register(r *gin.Engine) {
	r.POST("/api/cycle/run", h.runCycle)
}

func (h *CycleHandler) runCycle(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "cycle service unavailable", nil)
		return
	}
	if !h.running.CompareAndSwap(false, true) {
		Error(c, http.StatusConflict, "a cycle is already running", nil)
		return
	}
	defer h.running.Store(false)

	result, err := h.Service.RunOnce(c.Request.Context(), time.Now())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("manual cycle failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{
		"date":   result.Date,
		"opened": len(result.Opened),
		"closed": len(result.Closed),
	}, nil)
}
