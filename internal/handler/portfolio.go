package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volarb/internal/models"
	"volarb/internal/report"
	"volarb/internal/repository"
)

// PortfolioHandler exposes the stored portfolio document read-only. Every
// request reads the latest persisted state, so the dashboard always reflects
// the last completed cycle regardless of in-process caching.
type PortfolioHandler struct {
	Store  repository.PortfolioStore
	Logger *zap.Logger
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	group := r.Group("/api/portfolio")
	group.GET("", h.getPortfolio)
	group.GET("/positions", h.listPositions)
	group.GET("/trades", h.listTrades)
	group.GET("/snapshots", h.listSnapshots)
	group.GET("/stats", h.getStats)
}

func (h *PortfolioHandler) load(c *gin.Context) (*models.PortfolioDocument, bool) {
	doc, err := h.Store.Load(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("portfolio load failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "portfolio unavailable", nil)
		return nil, false
	}
	if doc == nil {
		Error(c, http.StatusNotFound, "no portfolio yet, waiting for first cycle", nil)
		return nil, false
	}
	return doc, true
}

func (h *PortfolioHandler) getPortfolio(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	data := gin.H{
		"start_date":      doc.StartDate,
		"initial_capital": doc.InitialCapital,
		"current_cash":    doc.CurrentCash,
		"open_positions":  doc.OpenPositionCount(),
		"closed_trades":   len(doc.ClosedTrades),
	}
	if last := doc.LatestSnapshot(); last != nil {
		data["portfolio_value"] = last.PortfolioValue
		data["positions_value"] = last.PositionsValue
		data["as_of"] = last.Date
	}
	Ok(c, data, nil)
}

func (h *PortfolioHandler) listPositions(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	positions := doc.Positions
	if positions == nil {
		positions = []models.Position{}
	}
	Ok(c, positions, map[string]any{"count": len(positions)})
}

func (h *PortfolioHandler) listTrades(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	trades := doc.ClosedTrades
	if trades == nil {
		trades = []models.ClosedTrade{}
	}
	Ok(c, trades, map[string]any{"count": len(trades)})
}

func (h *PortfolioHandler) listSnapshots(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	snapshots := doc.DailySnapshots
	if limit := intQuery(c, "limit", 0); limit > 0 && limit < len(snapshots) {
		snapshots = snapshots[len(snapshots)-limit:]
	}
	if snapshots == nil {
		snapshots = []models.DailySnapshot{}
	}
	Ok(c, snapshots, map[string]any{"count": len(snapshots)})
}

func (h *PortfolioHandler) getStats(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	Ok(c, gin.H{
		"performance":  doc.PerformanceStats,
		"max_drawdown": report.MaxDrawdown(doc.DailySnapshots),
	}, nil)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
