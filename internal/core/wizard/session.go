package wizard

import (
	"sync"
	"time"

	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"go.uber.org/zap"
)

// Factory 依會話 ID 建立控制器
type Factory func(id string) *Controller

// SessionManager 會話管理器，只存在記憶體中，重啟後不保留
type SessionManager struct {
	config  config.SessionConfig
	factory Factory

	mu    sync.Mutex
	store map[string]*sessionEntry
	stats sessionStats
	now   func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// sessionEntry 會話條目
type sessionEntry struct {
	controller  *Controller
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// sessionStats 會話統計
type sessionStats struct {
	created   int64
	expired   int64
	evictions int64
}

// NewSessionManager 創建新的會話管理器
func NewSessionManager(cfg config.SessionConfig, factory Factory) *SessionManager {
	m := &SessionManager{
		config:  cfg,
		factory: factory,
		store:   make(map[string]*sessionEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("會話管理員已初始化",
		zap.Int("最大會話數", cfg.MaxSessions),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return m
}

// Create 建立新會話
func (m *SessionManager) Create() (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxSessions > 0 && len(m.store) >= m.config.MaxSessions {
		m.cleanup()
		if len(m.store) >= m.config.MaxSessions {
			m.evictLRU()
		}
		if len(m.store) >= m.config.MaxSessions {
			common.LogWarn("會話已滿", zap.Int("目前數量", len(m.store)))
			return nil, common.ErrSessionLimit
		}
	}

	id := common.GenerateUUID()
	now := m.now()
	ctrl := m.factory(id)
	m.store[id] = &sessionEntry{
		controller: ctrl,
		createdAt:  now,
		lastAccess: now,
	}
	m.stats.created++

	common.LogInfo("Session created", zap.String("session_id", id))
	return ctrl, nil
}

// Get 取得會話並更新存取時間
func (m *SessionManager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.store[id]
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	now := m.now()
	if m.expired(entry, now) {
		delete(m.store, id)
		m.stats.expired++
		common.LogInfo("會話已過期", zap.String("session_id", id))
		return nil, common.ErrSessionNotFound
	}

	entry.lastAccess = now
	entry.accessCount++
	return entry.controller, nil
}

// Delete 刪除會話
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store[id]; !ok {
		return false
	}
	delete(m.store, id)
	return true
}

// Len 目前會話數量
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *SessionManager) expired(entry *sessionEntry, now time.Time) bool {
	return m.config.TTL > 0 && now.Sub(entry.lastAccess) > m.config.TTL
}

// startCleanup 啟動清理閒置會話的協程
func (m *SessionManager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理閒置過久的會話，呼叫端需持有鎖
func (m *SessionManager) cleanup() int {
	now := m.now()
	count := 0
	for id, entry := range m.store {
		if m.expired(entry, now) {
			delete(m.store, id)
			count++
			m.stats.expired++
		}
	}

	if count > 0 {
		common.LogInfo("Cleaned up idle sessions",
			zap.Int("count", count),
			zap.Int64("total_expired", m.stats.expired),
			zap.Int("remaining", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰最久未使用的會話
func (m *SessionManager) evictLRU() {
	var oldestID string
	var oldestAccess time.Time

	for id, entry := range m.store {
		if oldestID == "" || entry.lastAccess.Before(oldestAccess) {
			oldestID = id
			oldestAccess = entry.lastAccess
		}
	}

	if oldestID != "" {
		delete(m.store, oldestID)
		m.stats.evictions++
		common.LogInfo("會話已淘汰(LRU)", zap.String("session_id", oldestID))
	}
}

// GetStats 獲取會話統計信息
func (m *SessionManager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]interface{}{
		"size":         len(m.store),
		"max_sessions": m.config.MaxSessions,
		"created":      m.stats.created,
		"expired":      m.stats.expired,
		"evictions":    m.stats.evictions,
	}
}

// Close 停止清理協程並清空會話
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*sessionEntry)
	common.LogInfo("會話管理員已關閉",
		zap.Int64("建立次數", m.stats.created),
		zap.Int64("過期次數", m.stats.expired),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
}
