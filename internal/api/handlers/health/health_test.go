package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

type fixedStats map[string]interface{}

func (s fixedStats) GetStats() map[string]interface{} { return s }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		sessions StatsProvider
		status   int
	}{
		{"ready", fixedStats{"active": 0}, http.StatusOK},
		{"no session manager", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(config.Default(), tt.sessions, nil)
			r := gin.New()
			r.GET("/ready", h.ReadinessCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusServiceUnavailable {
				return
			}
			var resp common.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != common.ErrCodeServiceUnavailable {
				t.Fatalf("code = %q, want %q", resp.Code, common.ErrCodeServiceUnavailable)
			}
		})
	}
}

func TestHealthCheckIncludesStats(t *testing.T) {
	h := NewHandler(config.Default(), fixedStats{"active": 3}, fixedStats{"hits": 1})
	r := gin.New()
	r.GET("/health", h.HealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Sessions["active"] != float64(3) || resp.Cache["hits"] != float64(1) {
		t.Fatalf("health = %+v", resp)
	}
}
