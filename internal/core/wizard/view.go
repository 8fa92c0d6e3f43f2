package wizard

import "glowguide/internal/core/skin"

// ConcernFlag 困擾與其選取狀態
type ConcernFlag struct {
	Concern  skin.Concern `json:"concern"`
	Selected bool         `json:"selected"`
}

// View 精靈的唯讀投影，提供給前端渲染
type View struct {
	SessionID       string                 `json:"session_id"`
	Step            Step                   `json:"step"`
	StepName        string                 `json:"step_name"`
	StepLabel       string                 `json:"step_label"`
	TaxonomyMode    skin.TaxonomyMode      `json:"taxonomy_mode"`
	FaceArea        string                 `json:"face_area,omitempty"`
	ProductCategory string                 `json:"product_category,omitempty"`
	Areas           []string               `json:"areas,omitempty"`
	Categories      []string               `json:"categories"`
	Concerns        []ConcernFlag          `json:"concerns"`
	SelectedCount   int                    `json:"selected_count"`
	CanSubmit       bool                   `json:"can_submit"`
	Recommendation  OperationStatus        `json:"recommendation_status"`
	ProductFetch    OperationStatus        `json:"product_status"`
	Verdicts        *skin.VerdictMap       `json:"verdicts,omitempty"`
	Result          *skin.ClassifiedResult `json:"result,omitempty"`
	Products        []skin.RankedProduct   `json:"products"`
}

// Snapshot 產生目前狀態的投影；分組與商品排序每次都由最新的推薦結果重新計算
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{
		SessionID:       c.id,
		Step:            c.step,
		StepName:        c.step.String(),
		StepLabel:       c.step.Label(),
		TaxonomyMode:    c.taxonomy.Mode(),
		FaceArea:        c.selection.FaceArea,
		ProductCategory: c.selection.ProductCategory,
		Areas:           c.taxonomy.Areas(),
		Categories:      c.taxonomy.Categories(c.selection.FaceArea),
		SelectedCount:   c.selection.SelectedCount(),
		Recommendation:  c.recStatus,
		ProductFetch:    c.prodStatus,
		Products:        []skin.RankedProduct{},
	}
	if view.Categories == nil {
		view.Categories = []string{}
	}
	for _, concern := range skin.Concerns() {
		view.Concerns = append(view.Concerns, ConcernFlag{
			Concern:  concern,
			Selected: c.selection.Concerns[concern],
		})
	}
	view.CanSubmit = c.step == StepConcerns && view.SelectedCount > 0 && c.recStatus.State != OpInFlight

	if c.verdicts != nil {
		verdicts := *c.verdicts
		result := skin.Classify(verdicts)
		view.Verdicts = &verdicts
		view.Result = &result
		view.Products = skin.RankProducts(c.products, result.Recommended)
	}
	return view
}
