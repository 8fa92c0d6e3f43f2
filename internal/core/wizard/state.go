package wizard

import (
	"context"
	"errors"

	"glowguide/internal/core/skin"
)

// RecommendationClient 預測服務：困擾向量 + 產品類別 → 成分推薦結果
type RecommendationClient interface {
	Predict(ctx context.Context, features []int, category string) (skin.VerdictMap, error)
}

// ProductClient 商品過濾服務：推薦結果 + 產品類別 → 候選商品
type ProductClient interface {
	FilterProducts(ctx context.Context, verdicts skin.VerdictMap, category string) ([]skin.Product, error)
}

// ErrUnknownConcern 困擾不在固定詞彙中，屬於程式錯誤而非使用者輸入錯誤
var ErrUnknownConcern = errors.New("wizard: unknown concern")

// Step 精靈步驟
type Step int

const (
	StepSelection Step = iota + 1
	StepConcerns
	StepRecommendations
	StepProducts
)

func (s Step) String() string {
	switch s {
	case StepSelection:
		return "selection"
	case StepConcerns:
		return "concerns"
	case StepRecommendations:
		return "recommendations"
	case StepProducts:
		return "products"
	default:
		return "unknown"
	}
}

// Label 前端進度條顯示的步驟名稱
func (s Step) Label() string {
	switch s {
	case StepSelection:
		return "Face/Product"
	case StepConcerns:
		return "Concerns"
	case StepRecommendations:
		return "Ingredients"
	case StepProducts:
		return "Products"
	default:
		return ""
	}
}

// OpState 非同步操作狀態
type OpState string

const (
	OpIdle      OpState = "idle"
	OpInFlight  OpState = "in_flight"
	OpSucceeded OpState = "succeeded"
	OpFailed    OpState = "failed"
)

// OperationStatus 外部呼叫的狀態，失敗時 Message 為可讀的錯誤信息
type OperationStatus struct {
	State   OpState `json:"state"`
	Message string  `json:"message,omitempty"`
}

func idleStatus() OperationStatus {
	return OperationStatus{State: OpIdle}
}

// SelectionState 使用者目前的選擇。空字串表示尚未選擇
type SelectionState struct {
	FaceArea        string
	ProductCategory string
	Concerns        map[skin.Concern]bool
}

// NewSelectionState 建立初始選擇：所有困擾為 false，未選部位與類別
func NewSelectionState() SelectionState {
	flags := make(map[skin.Concern]bool, skin.ConcernCount())
	for _, c := range skin.Concerns() {
		flags[c] = false
	}
	return SelectionState{Concerns: flags}
}

// SelectedCount 已選困擾數量
func (s SelectionState) SelectedCount() int {
	n := 0
	for _, on := range s.Concerns {
		if on {
			n++
		}
	}
	return n
}

// Clone 深拷貝
func (s SelectionState) Clone() SelectionState {
	flags := make(map[skin.Concern]bool, len(s.Concerns))
	for c, on := range s.Concerns {
		flags[c] = on
	}
	s.Concerns = flags
	return s
}
