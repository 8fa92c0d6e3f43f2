package skin

import "strings"

// 預測模型輸出的成分群組，順序與模型輸出一致
var ingredientVocabulary = []string{
	"hyaluronic", "niacinamide", "peptide", "vitamin_c", "ceramide", "retinol",
	"aha_bha", "antioxidant", "mineral_spf", "growth_factor", "probiotic",
	"hydrating", "emollient", "preservative", "texture_stabilizer",
	"fragrance", "solvent", "ph_adjuster", "colorant", "skin_soothing",
	"2_hexanediol", "glyceryl_caprylate", "hydroxyacetophenone",
	"titanium_dioxide", "peg_100_stearate",
}

// Ingredients 回傳成分詞彙的副本
func Ingredients() []string {
	return append([]string(nil), ingredientVocabulary...)
}

// IsKnownIngredient 檢查是否為模型已知成分
func IsKnownIngredient(id string) bool {
	for _, known := range ingredientVocabulary {
		if known == id {
			return true
		}
	}
	return false
}

// FormatIngredientName 將成分識別碼轉為顯示名稱，例如 vitamin_c → vitamin c
func FormatIngredientName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

const defaultIngredientDescription = "Supporting ingredient for skin health"

var ingredientDescriptions = map[string]string{
	"hyaluronic":          "Hydrating molecule that holds 1000x its weight in water",
	"niacinamide":         "Vitamin B3 that reduces pores and improves skin texture",
	"peptide":             "Amino acid chains that support collagen production",
	"vitamin_c":           "Potent antioxidant that brightens and protects skin",
	"ceramide":            "Lipids that strengthen the skin barrier and retain moisture",
	"retinol":             "Vitamin A derivative that accelerates cell turnover",
	"aha_bha":             "Exfoliating acids that remove dead skin cells",
	"antioxidant":         "Compounds that protect against environmental damage",
	"mineral_spf":         "Physical UV protection using minerals like zinc oxide",
	"growth_factor":       "Proteins that stimulate cell growth and repair",
	"probiotic":           "Beneficial bacteria that support skin microbiome",
	"hydrating":           "Ingredients that increase skin water content",
	"emollient":           "Softens and smooths skin by filling in gaps",
	"preservative":        "Prevents product contamination and extends shelf life",
	"texture_stabilizer":  "Maintains product consistency and feel",
	"fragrance":           "Adds scent to products but may cause irritation",
	"solvent":             "Dissolves other ingredients in the formulation",
	"ph_adjuster":         "Balances the acidity level of the product",
	"colorant":            "Adds color to the formulation",
	"skin_soothing":       "Calms irritation and reduces redness",
	"2_hexanediol":        "Moisturizer and preservative booster",
	"glyceryl_caprylate":  "Natural preservative with antimicrobial properties",
	"hydroxyacetophenone": "Antioxidant and preservative enhancer",
	"titanium_dioxide":    "Mineral UV filter that reflects and scatters light",
}

// IngredientDescription 成分說明文字，沒有專屬說明時回傳通用文字
func IngredientDescription(id string) string {
	if desc, ok := ingredientDescriptions[id]; ok {
		return desc
	}
	return defaultIngredientDescription
}
