package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"glowguide/internal/core/skin"
	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	predictPath        = "/predict"
	filterProductsPath = "/filter-products"

	predictFailedMessage  = "Failed to get recommendations"
	productsFailedMessage = "Failed to get product recommendations"
)

// predictRequest /predict 請求體
type predictRequest struct {
	Features    []int  `json:"features"`
	ProductType string `json:"product_type"`
}

// predictResponse /predict 響應
type predictResponse struct {
	Ingredients json.RawMessage `json:"ingredients"`
	Error       string          `json:"error,omitempty"`
}

// filterRequest /filter-products 請求體
type filterRequest struct {
	Ingredients skin.VerdictMap `json:"ingredients"`
	ProductType string          `json:"product_type"`
}

// filterResponse /filter-products 響應
type filterResponse struct {
	Products []skin.Product `json:"products"`
	Error    string         `json:"error,omitempty"`
}

// newRestyClient 依設定建立 resty 客戶端，5xx 與傳輸錯誤會重試
func newRestyClient(cfg config.UpstreamConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.RetryWait > 0 {
		client.SetRetryWaitTime(cfg.RetryWait)
	}
	if cfg.RetryMaxWait > 0 {
		client.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	}
	return client
}

// RecommendationService 呼叫預測服務
type RecommendationService struct {
	client *resty.Client
}

// NewRecommendationService 創建預測服務客戶端
func NewRecommendationService(cfg config.UpstreamConfig) *RecommendationService {
	return &RecommendationService{client: newRestyClient(cfg)}
}

// Predict 將困擾向量送到預測服務，回傳每個成分的推薦結果
func (s *RecommendationService) Predict(ctx context.Context, features []int, category string) (skin.VerdictMap, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Features: features, ProductType: category}).
		Post(predictPath)
	if err != nil {
		common.LogError("Failed to send request to predictor", zap.Error(err))
		return skin.VerdictMap{}, common.NewServiceError("predictor", predictFailedMessage, 0, err)
	}

	if !resp.IsSuccess() {
		common.LogError("Predictor returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", upstreamError(resp.Body())),
		)
		return skin.VerdictMap{}, common.NewServiceError("predictor", predictFailedMessage, resp.StatusCode(),
			fmt.Errorf("predictor status %d", resp.StatusCode()))
	}

	var body predictResponse
	if err := common.ParseJSONBytes(resp.Body(), &body); err != nil {
		common.LogError("Failed to parse predictor response", zap.Error(err))
		return skin.VerdictMap{}, common.NewServiceError("predictor", predictFailedMessage, resp.StatusCode(), err)
	}
	if len(body.Ingredients) == 0 || string(body.Ingredients) == "null" {
		return skin.VerdictMap{}, common.NewServiceError("predictor", predictFailedMessage, resp.StatusCode(),
			fmt.Errorf("predictor response has no ingredients"))
	}

	var verdicts skin.VerdictMap
	if err := json.Unmarshal(body.Ingredients, &verdicts); err != nil {
		common.LogError("Failed to parse predictor verdicts", zap.Error(err))
		return skin.VerdictMap{}, common.NewServiceError("predictor", predictFailedMessage, resp.StatusCode(), err)
	}

	common.LogDebug("Predictor verdicts received",
		zap.String("product_type", category),
		zap.Int("ingredients", verdicts.Len()),
	)
	return verdicts, nil
}

// CatalogService 呼叫商品過濾服務
type CatalogService struct {
	client *resty.Client
}

// NewCatalogService 創建商品過濾服務客戶端
func NewCatalogService(cfg config.UpstreamConfig) *CatalogService {
	return &CatalogService{client: newRestyClient(cfg)}
}

// FilterProducts 以推薦結果取得候選商品，可能為空
func (s *CatalogService) FilterProducts(ctx context.Context, verdicts skin.VerdictMap, category string) ([]skin.Product, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(filterRequest{Ingredients: verdicts, ProductType: category}).
		Post(filterProductsPath)
	if err != nil {
		common.LogError("Failed to send request to catalog", zap.Error(err))
		return nil, common.NewServiceError("catalog", productsFailedMessage, 0, err)
	}

	if !resp.IsSuccess() {
		common.LogError("Catalog returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", upstreamError(resp.Body())),
		)
		return nil, common.NewServiceError("catalog", productsFailedMessage, resp.StatusCode(),
			fmt.Errorf("catalog status %d", resp.StatusCode()))
	}

	var body filterResponse
	if err := common.ParseJSONBytes(resp.Body(), &body); err != nil {
		common.LogError("Failed to parse catalog response", zap.Error(err))
		return nil, common.NewServiceError("catalog", productsFailedMessage, resp.StatusCode(), err)
	}
	if body.Products == nil {
		body.Products = []skin.Product{}
	}

	common.LogDebug("Catalog products received",
		zap.String("product_type", category),
		zap.Int("products", len(body.Products)),
	)
	return body.Products, nil
}

// upstreamError 取出上游 {"error": "..."} 信息，否則截斷原始內容
func upstreamError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
