package skin

import "sort"

// MatchedIngredients 依推薦清單順序，回傳商品中含有（真值）的推薦成分。
// 只作為顯示排序訊號，不會過濾商品
func MatchedIngredients(product Product, recommended []string) []string {
	matched := make([]string, 0, len(recommended))
	for _, id := range recommended {
		if product.IngredientFlags.Has(id) {
			matched = append(matched, id)
		}
	}
	return matched
}

// RankedProduct 商品與其符合的推薦成分
type RankedProduct struct {
	Product Product  `json:"product"`
	Matched []string `json:"matched"`
}

// RankProducts 依符合數量由多到少穩定排序，商品數量不變
func RankProducts(products []Product, recommended []string) []RankedProduct {
	ranked := make([]RankedProduct, len(products))
	for i, p := range products {
		ranked[i] = RankedProduct{Product: p, Matched: MatchedIngredients(p, recommended)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Matched) > len(ranked[j].Matched)
	})
	return ranked
}
