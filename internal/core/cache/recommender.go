package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"glowguide/internal/core/skin"
	"glowguide/internal/pkg/common"

	"go.uber.org/zap"
)

// Predictor 成分預測服務
type Predictor interface {
	Predict(ctx context.Context, features []int, category string) (skin.VerdictMap, error)
}

// CachedRecommender 為預測結果加上緩存，失敗的結果不寫入
type CachedRecommender struct {
	next  Predictor
	store Store
}

// NewCachedRecommender 創建帶緩存的預測服務
func NewCachedRecommender(next Predictor, store Store) *CachedRecommender {
	return &CachedRecommender{next: next, store: store}
}

// Predict 先查緩存，未命中才呼叫預測服務
func (r *CachedRecommender) Predict(ctx context.Context, features []int, category string) (skin.VerdictMap, error) {
	key := PredictKey(features, category)

	if raw, err := r.store.Get(ctx, key); err == nil {
		var verdicts skin.VerdictMap
		if err := common.ParseJSON(raw, &verdicts); err == nil {
			return verdicts, nil
		}
		common.LogWarn("Discarding corrupt cache entry", zap.String("key", key))
	} else if !errors.Is(err, common.ErrCacheMiss) {
		// 緩存故障不影響預測
		common.LogWarn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	verdicts, err := r.next.Predict(ctx, features, category)
	if err != nil {
		return skin.VerdictMap{}, err
	}

	raw, err := common.ToJSON(verdicts)
	if err == nil {
		err = r.store.Set(ctx, key, raw)
	}
	if err != nil {
		common.LogWarn("Failed to cache prediction", zap.String("key", key), zap.Error(err))
	}
	return verdicts, nil
}

// PredictKey 由類別與特徵向量產生緩存鍵
func PredictKey(features []int, category string) string {
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = strconv.Itoa(f)
	}
	sum := sha256.Sum256([]byte(category + "|" + strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
