package wizard

import (
	"glowguide/internal/core/skin"
	wizardCore "glowguide/internal/core/wizard"
	"glowguide/internal/infrastructure/config"
)

// IngredientItem 顯示用成分
type IngredientItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductCard 顯示用商品卡片
type ProductCard struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	MatchCount     int      `json:"match_count"`
	KeyIngredients []string `json:"key_ingredients"`
}

// Display 依前端版面限制整理過的結果
type Display struct {
	Recommended []IngredientItem `json:"recommended"`
	Avoid       []IngredientItem `json:"avoid"`
	AvoidMore   int              `json:"avoid_more"`
	Products    []ProductCard    `json:"products"`
}

// SessionResponse 會話狀態回應
type SessionResponse struct {
	wizardCore.View
	Display *Display `json:"display,omitempty"`
}

// SessionErrorResponse 外部服務失敗時的回應，附上未推進的會話狀態
type SessionErrorResponse struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Details string           `json:"details,omitempty"`
	Session *SessionResponse `json:"session,omitempty"`
}

func newSessionResponse(view wizardCore.View, limits config.DisplayConfig) SessionResponse {
	resp := SessionResponse{View: view}
	if view.Result == nil {
		return resp
	}

	display := &Display{
		Recommended: ingredientItems(view.Result.Recommended),
		Products:    make([]ProductCard, 0, len(view.Products)),
	}

	avoid := view.Result.Avoid
	if limits.MaxAvoidIngredients > 0 && len(avoid) > limits.MaxAvoidIngredients {
		display.AvoidMore = len(avoid) - limits.MaxAvoidIngredients
		avoid = avoid[:limits.MaxAvoidIngredients]
	}
	display.Avoid = ingredientItems(avoid)

	for _, ranked := range view.Products {
		matched := ranked.Matched
		if limits.MaxKeyIngredients > 0 && len(matched) > limits.MaxKeyIngredients {
			matched = matched[:limits.MaxKeyIngredients]
		}
		key := make([]string, len(matched))
		for i, id := range matched {
			key[i] = skin.FormatIngredientName(id)
		}
		display.Products = append(display.Products, ProductCard{
			Name:           ranked.Product.DisplayName(),
			Brand:          ranked.Product.DisplayBrand(),
			Category:       ranked.Product.DisplayCategory(),
			MatchCount:     len(ranked.Matched),
			KeyIngredients: key,
		})
	}

	resp.Display = display
	return resp
}

func ingredientItems(ids []string) []IngredientItem {
	items := make([]IngredientItem, len(ids))
	for i, id := range ids {
		items[i] = IngredientItem{
			ID:          id,
			Name:        skin.FormatIngredientName(id),
			Description: skin.IngredientDescription(id),
		}
	}
	return items
}
