package health

import (
	"net/http"
	"runtime"
	"time"

	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsProvider 提供統計資訊的元件（會話管理員、快取）
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Sessions  map[string]interface{} `json:"sessions,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	cfg      *config.Config
	sessions StatsProvider
	cache    StatsProvider
}

// NewHandler 創建健康檢查處理程序；cache 可為 nil
func NewHandler(cfg *config.Config, sessions StatsProvider, cache StatsProvider) *Handler {
	return &Handler{cfg: cfg, sessions: sessions, cache: cache}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.sessions != nil {
		response.Sessions = h.sessions.GetStats()
	}
	if h.cache != nil {
		response.Cache = h.cache.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, common.ErrServiceUnavailable.ToResponse(false))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"predictor": h.cfg.Predictor.BaseURL,
		"catalog":   h.cfg.Catalog.BaseURL,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
