package skin

// ClassifiedResult 推薦/避免成分分組，永遠由 VerdictMap 重新計算
type ClassifiedResult struct {
	Recommended []string `json:"recommended"`
	Avoid       []string `json:"avoid"`
}

// Classify 將 VerdictMap 分為推薦與避免兩組。"Yes" 進推薦，"No" 進避免，其他值兩邊都不放。
// 輸出保留 VerdictMap 的順序
func Classify(verdicts VerdictMap) ClassifiedResult {
	result := ClassifiedResult{
		Recommended: []string{},
		Avoid:       []string{},
	}
	for _, e := range verdicts.entries {
		switch e.Verdict.Kind {
		case VerdictYes:
			result.Recommended = append(result.Recommended, e.Ingredient)
		case VerdictNo:
			result.Avoid = append(result.Avoid, e.Ingredient)
		}
	}
	return result
}
