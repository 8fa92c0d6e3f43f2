package skin

import "encoding/json"

// Product 商品過濾服務回傳的候選商品，流程中不會修改
type Product struct {
	Name            string          `json:"name,omitempty"`
	Brand           string          `json:"brand,omitempty"`
	Category        string          `json:"category,omitempty"`
	IngredientFlags IngredientFlags `json:"ingredients,omitempty"`
}

// UnmarshalJSON 上游以 "type" 表示類別，這裡同時接受 "category"。
// 沒有 "ingredients" 欄位時，成分旗標取自頂層的成分鍵，例如 {"hyaluronic":1}
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var raw struct {
		alias
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.alias)
	if p.Category == "" && raw.Type != nil {
		p.Category = *raw.Type
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if _, ok := fields["ingredients"]; ok {
		return nil
	}
	flags := make(IngredientFlags)
	for key, value := range fields {
		if IsKnownIngredient(key) {
			flags[key] = ParsePresence(value)
		}
	}
	if len(flags) > 0 {
		p.IngredientFlags = flags
	}
	return nil
}

// DisplayName 顯示用名稱
func (p Product) DisplayName() string {
	if p.Name == "" {
		return "Unnamed Product"
	}
	return p.Name
}

// DisplayBrand 顯示用品牌
func (p Product) DisplayBrand() string {
	if p.Brand == "" {
		return "Brand"
	}
	return p.Brand
}

// DisplayCategory 顯示用類別
func (p Product) DisplayCategory() string {
	if p.Category == "" {
		return "Type"
	}
	return p.Category
}
