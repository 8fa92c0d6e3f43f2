package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"glowguide/internal/core/skin"
	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"
)

func upstream(url string) config.UpstreamConfig {
	return config.UpstreamConfig{BaseURL: url, Timeout: 2 * time.Second}
}

func TestPredictSendsFeaturesAndKeepsVerdictOrder(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ingredients":{"retinol":"No","hyaluronic":"Yes","ceramide":"Yes"}}`))
	}))
	defer srv.Close()

	client := NewRecommendationService(upstream(srv.URL))
	features := []int{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0}

	verdicts, err := client.Predict(context.Background(), features, "Serum")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if !reflect.DeepEqual(got.Features, features) || got.ProductType != "Serum" {
		t.Fatalf("request = %+v", got)
	}
	result := skin.Classify(verdicts)
	if !reflect.DeepEqual(result.Recommended, []string{"hyaluronic", "ceramide"}) {
		t.Fatalf("recommended = %v", result.Recommended)
	}
	if !reflect.DeepEqual(result.Avoid, []string{"retinol"}) {
		t.Fatalf("avoid = %v", result.Avoid)
	}
}

func TestPredictMapsFailuresToServiceError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "bad request", status: http.StatusBadRequest, payload: `{"error":"Invalid input features"}`},
		{name: "server error", status: http.StatusInternalServerError, payload: `oops`},
		{name: "malformed body", status: http.StatusOK, payload: `{"ingredients":`},
		{name: "missing ingredients", status: http.StatusOK, payload: `{}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := NewRecommendationService(upstream(srv.URL)).Predict(context.Background(), make([]int, 15), "Toner")
			if !common.IsServiceError(err) {
				t.Fatalf("expected ServiceError, got %v", err)
			}
			if msg := common.ServiceErrorMessage(err); msg != "Failed to get recommendations" {
				t.Fatalf("message = %q", msg)
			}
		})
	}
}

func TestPredictTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewRecommendationService(upstream(url)).Predict(context.Background(), make([]int, 15), "Toner")
	var svcErr *common.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Status != 0 || svcErr.Service != "predictor" {
		t.Fatalf("unexpected service error %+v", svcErr)
	}
}

func TestFilterProductsForwardsVerdicts(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/filter-products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"products":[{"name":"Gel","brand":"B","type":"Serum","ingredients":{"hyaluronic":1}}]}`))
	}))
	defer srv.Close()

	verdicts := skin.VerdictsFromStrings("hyaluronic", "Yes", "fragrance", "No")
	products, err := NewCatalogService(upstream(srv.URL)).FilterProducts(context.Background(), verdicts, "Serum")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	if string(raw["ingredients"]) != `{"hyaluronic":"Yes","fragrance":"No"}` {
		t.Fatalf("ingredients body = %s", raw["ingredients"])
	}
	if string(raw["product_type"]) != `"Serum"` {
		t.Fatalf("product_type body = %s", raw["product_type"])
	}
	if len(products) != 1 || products[0].Category != "Serum" || !products[0].IngredientFlags.Has("hyaluronic") {
		t.Fatalf("products = %+v", products)
	}
}

func TestFilterProductsEmptyAndFailure(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()

	products, err := NewCatalogService(upstream(empty.URL)).FilterProducts(context.Background(), skin.VerdictMap{}, "Toner")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", products)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No ingredient groups provided"}`))
	}))
	defer failing.Close()

	_, err = NewCatalogService(upstream(failing.URL)).FilterProducts(context.Background(), skin.VerdictMap{}, "Toner")
	if common.ServiceErrorMessage(err) != "Failed to get product recommendations" {
		t.Fatalf("unexpected error %v", err)
	}
}
