package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"glowguide/internal/pkg/common"
)

// Deduplicator 在時間窗內擋下相同的 POST 請求（例如連點兩次「送出」）
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	requests  map[string]time.Time
	lastSweep time.Time
}

// NewDeduplicator 創建請求去重器，window <= 0 時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:   window,
		now:      time.Now,
		requests: make(map[string]time.Time),
	}
}

// record 記錄指紋並回傳記錄時間；時間窗內重複出現時 ok 為 false
func (d *Deduplicator) record(fingerprint string) (at time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSweep) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastSweep = now
	}

	if last, seen := d.requests[fingerprint]; seen && now.Sub(last) <= d.window {
		return last, false
	}
	d.requests[fingerprint] = now
	return now, true
}

// forget 移除 at 時寫入的指紋，之後的新記錄不受影響
func (d *Deduplicator) forget(fingerprint string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.requests[fingerprint]; ok && t.Equal(at) {
		delete(d.requests, fingerprint)
	}
}

// Middleware 請求去重中間件；處理失敗（非 2xx）的請求不會擋下重試
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		fingerprint, err := requestFingerprint(c.Request)
		if err != nil {
			common.LogError("Failed to read request body", zap.Error(err))
			c.Next()
			return
		}

		at, ok := d.record(fingerprint)
		if !ok {
			common.LogInfo("Duplicate request rejected", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.ToResponse(false))
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			d.forget(fingerprint, at)
		}
	}
}

// requestFingerprint 以方法、路徑與請求體哈希組成指紋，並還原請求體
func requestFingerprint(r *http.Request) (string, error) {
	fingerprint := r.Method + ":" + r.URL.Path
	if r.Body == nil {
		return fingerprint, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return fingerprint, nil
	}

	hash := sha256.Sum256(body)
	return fingerprint + ":" + hex.EncodeToString(hash[:]), nil
}
