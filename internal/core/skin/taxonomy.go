package skin

import (
	"fmt"
	"strings"
)

// Concern 皮膚困擾標籤
type Concern string

// 固定的困擾詞彙，宣告順序即特徵向量順序
const (
	ConcernAcneFighting      Concern = "Acne Fighting"
	ConcernAcneTrigger       Concern = "Acne Trigger"
	ConcernAntiAging         Concern = "Anti-Aging"
	ConcernBrightening       Concern = "Brightening"
	ConcernDarkSpots         Concern = "Dark Spots"
	ConcernDrying            Concern = "Drying"
	ConcernEczema            Concern = "Eczema"
	ConcernGoodForOilySkin   Concern = "Good For Oily Skin"
	ConcernHydrating         Concern = "Hydrating"
	ConcernIrritating        Concern = "Irritating"
	ConcernRednessReducing   Concern = "Redness Reducing"
	ConcernReducesIrritation Concern = "Reduces Irritation"
	ConcernReducesLargePores Concern = "Reduces Large Pores"
	ConcernRosacea           Concern = "Rosacea"
	ConcernScarHealing       Concern = "Scar Healing"
)

var concernVocabulary = []Concern{
	ConcernAcneFighting,
	ConcernAcneTrigger,
	ConcernAntiAging,
	ConcernBrightening,
	ConcernDarkSpots,
	ConcernDrying,
	ConcernEczema,
	ConcernGoodForOilySkin,
	ConcernHydrating,
	ConcernIrritating,
	ConcernRednessReducing,
	ConcernReducesIrritation,
	ConcernReducesLargePores,
	ConcernRosacea,
	ConcernScarHealing,
}

// ConcernCount 困擾詞彙數量，也是預測模型輸入向量的長度
func ConcernCount() int {
	return len(concernVocabulary)
}

// Concerns 回傳困擾詞彙的副本（依宣告順序）
func Concerns() []Concern {
	out := make([]Concern, len(concernVocabulary))
	copy(out, concernVocabulary)
	return out
}

// IsConcern 檢查是否為已知困擾
func IsConcern(c Concern) bool {
	for _, known := range concernVocabulary {
		if known == c {
			return true
		}
	}
	return false
}

// ConcernVector 依詞彙順序將選取狀態序列化為 0/1 向量
func ConcernVector(flags map[Concern]bool) []int {
	vector := make([]int, len(concernVocabulary))
	for i, c := range concernVocabulary {
		if flags[c] {
			vector[i] = 1
		}
	}
	return vector
}

// TaxonomyMode 分類模式
type TaxonomyMode string

const (
	// TaxonomyByArea 部位 → 產品類別 兩層分類（預設）
	TaxonomyByArea TaxonomyMode = "area"
	// TaxonomyFlat 單層產品類別清單，沒有部位選擇
	TaxonomyFlat TaxonomyMode = "flat"
)

// Taxonomy 產品類別分類
type Taxonomy struct {
	mode       TaxonomyMode
	areas      []string
	byArea     map[string][]string
	categories []string
}

var areaCategories = []struct {
	area       string
	categories []string
}{
	{"Face", []string{"Overnight Mask", "Makeup Remover", "Facial Treatment", "Serum", "Sunscreen", "Face Cleanser", "The Face Shop", "Face Makeup", "Toner", "Sheet Mask"}},
	{"Eyes", []string{"Eye Cream", "Eye Moisturizer", "Eye Makeup"}},
	{"Lips", []string{"Lip Moisturizer", "Lip Makeup", "Lip Mask"}},
	{"Hair", []string{"Other Haircare", "Conditioner", "Shampoo"}},
	{"Body", []string{"Bath & Body", "Fragrance"}},
	{"Hand", []string{"Nail Care", "Hand Care"}},
	{"General", []string{"General Moisturizer", "Oil", "Essence", "Emulsion", "Exfoliator"}},
	{"Cheek", []string{"Cheek Makeup"}},
}

var flatCategories = []string{
	"Cleanser", "Moisturizer", "Serum", "Sunscreen",
	"Toner", "Eye Cream", "Face Mask", "Exfoliator",
}

// NewAreaTaxonomy 建立部位分類
func NewAreaTaxonomy() *Taxonomy {
	t := &Taxonomy{
		mode:   TaxonomyByArea,
		byArea: make(map[string][]string, len(areaCategories)),
	}
	for _, entry := range areaCategories {
		t.areas = append(t.areas, entry.area)
		t.byArea[entry.area] = append([]string(nil), entry.categories...)
		t.categories = append(t.categories, entry.categories...)
	}
	return t
}

// NewFlatTaxonomy 建立單層分類
func NewFlatTaxonomy() *Taxonomy {
	return &Taxonomy{
		mode:       TaxonomyFlat,
		categories: append([]string(nil), flatCategories...),
	}
}

// NewTaxonomy 依模式建立分類
func NewTaxonomy(mode string) (*Taxonomy, error) {
	switch TaxonomyMode(strings.ToLower(strings.TrimSpace(mode))) {
	case TaxonomyByArea, "":
		return NewAreaTaxonomy(), nil
	case TaxonomyFlat:
		return NewFlatTaxonomy(), nil
	default:
		return nil, fmt.Errorf("unknown taxonomy mode %q", mode)
	}
}

// Mode 回傳分類模式
func (t *Taxonomy) Mode() TaxonomyMode {
	return t.mode
}

// HasAreas 是否需要先選擇部位
func (t *Taxonomy) HasAreas() bool {
	return t.mode == TaxonomyByArea
}

// Areas 回傳部位清單
func (t *Taxonomy) Areas() []string {
	return append([]string(nil), t.areas...)
}

// IsArea 檢查部位是否存在
func (t *Taxonomy) IsArea(area string) bool {
	_, ok := t.byArea[area]
	return ok
}

// Categories 回傳目前可選的產品類別。部位模式下未選部位時為空
func (t *Taxonomy) Categories(area string) []string {
	if !t.HasAreas() {
		return append([]string(nil), t.categories...)
	}
	return append([]string(nil), t.byArea[area]...)
}

// AllCategories 回傳全部產品類別
func (t *Taxonomy) AllCategories() []string {
	return append([]string(nil), t.categories...)
}

// IsAllowed 檢查產品類別是否屬於指定部位（單層模式忽略部位）
func (t *Taxonomy) IsAllowed(area, category string) bool {
	for _, c := range t.Categories(area) {
		if c == category {
			return true
		}
	}
	return false
}

// AreaOf 回傳產品類別所屬部位
func (t *Taxonomy) AreaOf(category string) (string, bool) {
	for _, area := range t.areas {
		for _, c := range t.byArea[area] {
			if c == category {
				return area, true
			}
		}
	}
	return "", false
}
