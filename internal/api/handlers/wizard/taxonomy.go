package wizard

import (
	"net/http"

	"glowguide/internal/core/skin"

	"github.com/gin-gonic/gin"
)

// AreaCategories 部位與其產品類別
type AreaCategories struct {
	Area       string   `json:"area"`
	Categories []string `json:"categories"`
}

// TaxonomyResponse 前端建立選單所需的詞彙
type TaxonomyResponse struct {
	Mode        skin.TaxonomyMode `json:"mode"`
	Concerns    []skin.Concern    `json:"concerns"`
	Areas       []AreaCategories  `json:"areas,omitempty"`
	Categories  []string          `json:"categories"`
	Ingredients []IngredientItem  `json:"ingredients"`
}

// HandleTaxonomy 回傳困擾、分類與成分詞彙
func (h *Handler) HandleTaxonomy(c *gin.Context) {
	resp := TaxonomyResponse{
		Mode:        h.taxonomy.Mode(),
		Concerns:    skin.Concerns(),
		Categories:  h.taxonomy.AllCategories(),
		Ingredients: ingredientItems(skin.Ingredients()),
	}
	for _, area := range h.taxonomy.Areas() {
		resp.Areas = append(resp.Areas, AreaCategories{
			Area:       area,
			Categories: h.taxonomy.Categories(area),
		})
	}
	c.JSON(http.StatusOK, resp)
}
