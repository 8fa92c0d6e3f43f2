package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"glowguide/internal/core/skin"
	"glowguide/internal/pkg/common"

	"go.uber.org/zap"
)

// Controller 精靈控制器，持有一個使用者會話的全部狀態。
//
// 外部呼叫在鎖外執行；每種請求帶有世代計數，回應到達時世代不符就直接丟棄。
type Controller struct {
	mu sync.Mutex

	id          string
	taxonomy    *skin.Taxonomy
	recommender RecommendationClient
	catalog     ProductClient

	step      Step
	selection SelectionState
	verdicts  *skin.VerdictMap
	products  []skin.Product

	recStatus  OperationStatus
	prodStatus OperationStatus
	recGen     uint64
	prodGen    uint64
}

// NewController 創建新的精靈控制器
func NewController(id string, taxonomy *skin.Taxonomy, recommender RecommendationClient, catalog ProductClient) *Controller {
	return &Controller{
		id:          id,
		taxonomy:    taxonomy,
		recommender: recommender,
		catalog:     catalog,
		step:        StepSelection,
		selection:   NewSelectionState(),
		products:    []skin.Product{},
		recStatus:   idleStatus(),
		prodStatus:  idleStatus(),
	}
}

// ID 會話 ID
func (c *Controller) ID() string {
	return c.id
}

// SelectFaceArea 選擇部位，並清除已選的產品類別
func (c *Controller) SelectFaceArea(area string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireStep(StepSelection, "select a face area"); err != nil {
		return err
	}
	if !c.taxonomy.HasAreas() {
		return common.NewValidationError("face areas are not used by this product taxonomy")
	}
	if !c.taxonomy.IsArea(area) {
		return common.NewValidationError(fmt.Sprintf("unknown face area %q", area))
	}

	c.selection.FaceArea = area
	c.selection.ProductCategory = ""
	c.logDebug("Face area selected", zap.String("face_area", area))
	return nil
}

// ClearFaceArea 回到部位選擇
func (c *Controller) ClearFaceArea() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireStep(StepSelection, "change the face area"); err != nil {
		return err
	}
	c.selection.FaceArea = ""
	c.selection.ProductCategory = ""
	return nil
}

// SelectProductCategory 選擇產品類別，成功後進入困擾步驟
func (c *Controller) SelectProductCategory(category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireStep(StepSelection, "select a product category"); err != nil {
		return err
	}
	if c.taxonomy.HasAreas() && c.selection.FaceArea == "" {
		return common.NewValidationError("select a face area before choosing a product category")
	}
	if !c.taxonomy.IsAllowed(c.selection.FaceArea, category) {
		if area, ok := c.taxonomy.AreaOf(category); ok {
			return common.NewValidationError(fmt.Sprintf("product category %q belongs to %s, not %s", category, area, c.selection.FaceArea))
		}
		return common.NewValidationError(fmt.Sprintf("unknown product category %q", category))
	}

	c.selection.ProductCategory = category
	c.setStep(StepConcerns)
	return nil
}

// ToggleConcern 切換困擾選取狀態，連續切換兩次等於沒變
func (c *Controller) ToggleConcern(concern skin.Concern) error {
	if !skin.IsConcern(concern) {
		return fmt.Errorf("%w: %q", ErrUnknownConcern, concern)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireStep(StepConcerns, "change skin concerns"); err != nil {
		return err
	}

	c.selection.Concerns[concern] = !c.selection.Concerns[concern]
	// 進行中的推薦請求是用舊的選擇送出的
	c.invalidateRecommendation()
	return nil
}

// SubmitConcerns 送出困擾取得成分推薦。至少要選一個困擾，同時只允許一個推薦請求
func (c *Controller) SubmitConcerns(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireStep(StepConcerns, "submit skin concerns"); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.recStatus.State == OpInFlight {
		c.mu.Unlock()
		return common.NewValidationError("a recommendation request is already in progress")
	}
	if c.selection.SelectedCount() == 0 {
		c.mu.Unlock()
		return common.NewValidationError("select at least one skin concern")
	}

	features := skin.ConcernVector(c.selection.Concerns)
	category := c.selection.ProductCategory
	c.recGen++
	gen := c.recGen
	c.recStatus = OperationStatus{State: OpInFlight}
	c.mu.Unlock()

	start := time.Now()
	verdicts, err := c.recommender.Predict(ctx, features, category)
	common.LogUpstreamCall("predictor", time.Since(start), err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.recGen {
		c.logDebug("Discarding stale recommendation response", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		err = asServiceError("predictor", "Failed to get recommendations", err)
		c.recStatus = OperationStatus{State: OpFailed, Message: common.ServiceErrorMessage(err)}
		return err
	}

	c.verdicts = &verdicts
	c.recStatus = OperationStatus{State: OpSucceeded}
	// 新的推薦結果讓舊的商品清單失效
	c.products = []skin.Product{}
	c.prodStatus = idleStatus()
	c.prodGen++
	c.setStep(StepRecommendations)
	return nil
}

// RequestProducts 依目前推薦結果取得商品。沒有推薦結果時不做任何事，推薦結果為空時回傳驗證錯誤
func (c *Controller) RequestProducts(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireStep(StepRecommendations, "request products"); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.verdicts == nil {
		c.mu.Unlock()
		return nil
	}
	if c.verdicts.IsEmpty() {
		c.mu.Unlock()
		return common.NewValidationError("no ingredient recommendations to match products against")
	}
	if c.prodStatus.State == OpInFlight {
		c.mu.Unlock()
		return common.NewValidationError("a product request is already in progress")
	}

	verdicts := *c.verdicts
	category := c.selection.ProductCategory
	c.prodGen++
	gen := c.prodGen
	c.prodStatus = OperationStatus{State: OpInFlight}
	c.mu.Unlock()

	start := time.Now()
	products, err := c.catalog.FilterProducts(ctx, verdicts, category)
	common.LogUpstreamCall("catalog", time.Since(start), err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.prodGen {
		c.logDebug("Discarding stale product response", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		err = asServiceError("catalog", "Failed to get product recommendations", err)
		c.prodStatus = OperationStatus{State: OpFailed, Message: common.ServiceErrorMessage(err)}
		return err
	}

	if products == nil {
		products = []skin.Product{}
	}
	c.products = products
	c.prodStatus = OperationStatus{State: OpSucceeded}
	c.setStep(StepProducts)
	return nil
}

// GoBack 回到上一步，已取得的資料保留
func (c *Controller) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case StepConcerns:
		c.invalidateRecommendation()
		c.setStep(StepSelection)
	case StepRecommendations:
		c.invalidateProducts()
		c.setStep(StepConcerns)
	case StepProducts:
		c.setStep(StepRecommendations)
	default:
		return common.NewValidationError("already at the first step")
	}
	return nil
}

// Reset 回到初始狀態，進行中的請求回應會被丟棄
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.step = StepSelection
	c.selection = NewSelectionState()
	c.verdicts = nil
	c.products = []skin.Product{}
	c.recStatus = idleStatus()
	c.prodStatus = idleStatus()
	c.recGen++
	c.prodGen++

	common.LogInfo("Wizard reset", zap.String("session_id", c.id))
}

// Step 目前步驟
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Selection 目前選擇的副本
func (c *Controller) Selection() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Clone()
}

// Verdicts 最新的推薦結果
func (c *Controller) Verdicts() (skin.VerdictMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdicts == nil {
		return skin.VerdictMap{}, false
	}
	return *c.verdicts, true
}

// Products 最新的商品清單副本
func (c *Controller) Products() []skin.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]skin.Product{}, c.products...)
}

// RecommendationStatus 推薦請求狀態
func (c *Controller) RecommendationStatus() OperationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recStatus
}

// ProductStatus 商品請求狀態
func (c *Controller) ProductStatus() OperationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prodStatus
}

func (c *Controller) requireStep(want Step, action string) error {
	if c.step != want {
		return common.NewValidationError(fmt.Sprintf("cannot %s during the %s step", action, c.step))
	}
	return nil
}

func (c *Controller) setStep(step Step) {
	if c.step == step {
		return
	}
	c.logDebug("Wizard step changed",
		zap.String("from", c.step.String()),
		zap.String("to", step.String()),
	)
	c.step = step
}

func (c *Controller) invalidateRecommendation() {
	if c.recStatus.State == OpInFlight {
		c.recGen++
		c.recStatus = idleStatus()
	}
}

func (c *Controller) invalidateProducts() {
	if c.prodStatus.State == OpInFlight {
		c.prodGen++
		c.prodStatus = idleStatus()
	}
}

func (c *Controller) logDebug(msg string, fields ...zap.Field) {
	common.LogDebug(msg, append([]zap.Field{zap.String("session_id", c.id)}, fields...)...)
}

// asServiceError 確保回傳給呼叫端的是 ServiceError
func asServiceError(service, message string, err error) error {
	if common.IsServiceError(err) {
		return err
	}
	return common.NewServiceError(service, message, 0, err)
}
