package wizard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"glowguide/internal/core/skin"
	"glowguide/internal/pkg/common"
)

type fakeRecommender struct {
	mu         sync.Mutex
	calls      int
	features   [][]int
	categories []string
	result     skin.VerdictMap
	err        error

	started chan struct{}
	release chan struct{}
}

func (f *fakeRecommender) Predict(ctx context.Context, features []int, category string) (skin.VerdictMap, error) {
	f.mu.Lock()
	f.calls++
	f.features = append(f.features, append([]int(nil), features...))
	f.categories = append(f.categories, category)
	result, err := f.result, f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return result, err
}

func (f *fakeRecommender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	mu       sync.Mutex
	calls    int
	verdicts []skin.VerdictMap
	products []skin.Product
	err      error

	started chan struct{}
	release chan struct{}
}

func (f *fakeCatalog) FilterProducts(ctx context.Context, verdicts skin.VerdictMap, category string) ([]skin.Product, error) {
	f.mu.Lock()
	f.calls++
	f.verdicts = append(f.verdicts, verdicts)
	products, err := f.products, f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return products, err
}

var testVerdicts = skin.VerdictsFromStrings(
	"hyaluronic", "Yes",
	"alcohol", "No",
	"niacinamide", "Yes",
	"fragrance", "Maybe",
)

var testProducts = []skin.Product{
	{Name: "Plain Cream", Brand: "A", Category: "Serum", IngredientFlags: skin.IngredientFlags{"alcohol": true}},
	{Name: "Hydra Serum", Brand: "B", Category: "Serum", IngredientFlags: skin.IngredientFlags{"hyaluronic": true, "niacinamide": true}},
}

func newTestController(rec RecommendationClient, cat ProductClient) *Controller {
	return NewController("test-session", skin.NewAreaTaxonomy(), rec, cat)
}

func toConcerns(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.SelectFaceArea("Face"); err != nil {
		t.Fatalf("SelectFaceArea() error = %v", err)
	}
	if err := c.SelectProductCategory("Serum"); err != nil {
		t.Fatalf("SelectProductCategory() error = %v", err)
	}
}

func toRecommendations(t *testing.T, c *Controller) {
	t.Helper()
	toConcerns(t, c)
	if err := c.ToggleConcern(skin.ConcernHydrating); err != nil {
		t.Fatalf("ToggleConcern() error = %v", err)
	}
	if err := c.SubmitConcerns(context.Background()); err != nil {
		t.Fatalf("SubmitConcerns() error = %v", err)
	}
}

func toProducts(t *testing.T, c *Controller) {
	t.Helper()
	toRecommendations(t, c)
	if err := c.RequestProducts(context.Background()); err != nil {
		t.Fatalf("RequestProducts() error = %v", err)
	}
}

func assertInitial(t *testing.T, c *Controller) {
	t.Helper()
	if c.Step() != StepSelection {
		t.Fatalf("step = %v, want selection", c.Step())
	}
	sel := c.Selection()
	if sel.FaceArea != "" || sel.ProductCategory != "" {
		t.Fatalf("selection = %+v, want empty", sel)
	}
	if len(sel.Concerns) != skin.ConcernCount() || sel.SelectedCount() != 0 {
		t.Fatalf("concerns = %v, want all %d false", sel.Concerns, skin.ConcernCount())
	}
	if _, ok := c.Verdicts(); ok {
		t.Fatal("verdicts present, want absent")
	}
	if len(c.Products()) != 0 {
		t.Fatalf("products = %v, want empty", c.Products())
	}
	if c.RecommendationStatus().State != OpIdle || c.ProductStatus().State != OpIdle {
		t.Fatal("operation status not idle")
	}
}

func TestNewControllerInitialState(t *testing.T) {
	assertInitial(t, newTestController(&fakeRecommender{}, &fakeCatalog{}))
}

func TestSelectionWithAreaTaxonomy(t *testing.T) {
	c := newTestController(&fakeRecommender{}, &fakeCatalog{})

	if err := c.SelectProductCategory("Serum"); !common.IsValidationError(err) {
		t.Fatalf("category before area error = %v, want ValidationError", err)
	}
	if err := c.SelectFaceArea("Nose"); !common.IsValidationError(err) {
		t.Fatalf("unknown area error = %v, want ValidationError", err)
	}
	if err := c.SelectFaceArea("Face"); err != nil {
		t.Fatalf("SelectFaceArea() error = %v", err)
	}
	err := c.SelectProductCategory("Eye Cream")
	if !common.IsValidationError(err) {
		t.Fatalf("category from another area error = %v, want ValidationError", err)
	}
	if want := `product category "Eye Cream" belongs to Eyes, not Face`; err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
	if c.Step() != StepSelection {
		t.Fatalf("step = %v, want selection after rejected category", c.Step())
	}

	if err := c.SelectFaceArea("Eyes"); err != nil {
		t.Fatalf("SelectFaceArea() error = %v", err)
	}
	if err := c.SelectProductCategory("Eye Cream"); err != nil {
		t.Fatalf("SelectProductCategory() error = %v", err)
	}
	if c.Step() != StepConcerns {
		t.Fatalf("step = %v, want concerns", c.Step())
	}
	if got := c.Selection(); got.FaceArea != "Eyes" || got.ProductCategory != "Eye Cream" {
		t.Fatalf("selection = %+v", got)
	}

	if err := c.SelectFaceArea("Face"); !common.IsValidationError(err) {
		t.Fatalf("SelectFaceArea() outside selection step error = %v, want ValidationError", err)
	}
}

func TestSelectFaceAreaClearsCategory(t *testing.T) {
	c := newTestController(&fakeRecommender{}, &fakeCatalog{})
	toConcerns(t, c)
	if err := c.GoBack(); err != nil {
		t.Fatalf("GoBack() error = %v", err)
	}
	if err := c.SelectFaceArea("Lips"); err != nil {
		t.Fatalf("SelectFaceArea() error = %v", err)
	}
	if got := c.Selection().ProductCategory; got != "" {
		t.Fatalf("category = %q, want cleared", got)
	}
	if err := c.ClearFaceArea(); err != nil {
		t.Fatalf("ClearFaceArea() error = %v", err)
	}
	if got := c.Selection().FaceArea; got != "" {
		t.Fatalf("area = %q, want cleared", got)
	}
}

func TestSelectionWithFlatTaxonomy(t *testing.T) {
	c := NewController("flat", skin.NewFlatTaxonomy(), &fakeRecommender{}, &fakeCatalog{})

	if err := c.SelectFaceArea("Face"); !common.IsValidationError(err) {
		t.Fatalf("SelectFaceArea() error = %v, want ValidationError", err)
	}
	if err := c.SelectProductCategory("Shampoo"); !common.IsValidationError(err) {
		t.Fatalf("unknown category error = %v, want ValidationError", err)
	}
	if err := c.SelectProductCategory("Moisturizer"); err != nil {
		t.Fatalf("SelectProductCategory() error = %v", err)
	}
	if c.Step() != StepConcerns {
		t.Fatalf("step = %v, want concerns", c.Step())
	}
}

func TestToggleConcern(t *testing.T) {
	c := newTestController(&fakeRecommender{}, &fakeCatalog{})

	if err := c.ToggleConcern(skin.ConcernRosacea); !common.IsValidationError(err) {
		t.Fatalf("toggle during selection error = %v, want ValidationError", err)
	}
	toConcerns(t, c)

	before := c.Selection()
	for i := 0; i < 2; i++ {
		if err := c.ToggleConcern(skin.ConcernRosacea); err != nil {
			t.Fatalf("ToggleConcern() error = %v", err)
		}
	}
	if !reflect.DeepEqual(before, c.Selection()) {
		t.Fatalf("toggling twice changed selection: %+v -> %+v", before, c.Selection())
	}

	if err := c.ToggleConcern("Sunburn"); !errors.Is(err, ErrUnknownConcern) {
		t.Fatalf("unknown concern error = %v, want ErrUnknownConcern", err)
	}
}

func TestSubmitConcernsRequiresSelection(t *testing.T) {
	rec := &fakeRecommender{result: testVerdicts}
	c := newTestController(rec, &fakeCatalog{})
	toConcerns(t, c)

	if err := c.SubmitConcerns(context.Background()); !common.IsValidationError(err) {
		t.Fatalf("SubmitConcerns() error = %v, want ValidationError", err)
	}
	if rec.callCount() != 0 {
		t.Fatalf("predict calls = %d, want 0", rec.callCount())
	}
	if c.Step() != StepConcerns {
		t.Fatalf("step = %v, want concerns", c.Step())
	}
}

func TestSubmitConcernsSendsVectorInVocabularyOrder(t *testing.T) {
	rec := &fakeRecommender{result: testVerdicts}
	c := newTestController(rec, &fakeCatalog{})
	toConcerns(t, c)

	_ = c.ToggleConcern(skin.ConcernScarHealing)
	_ = c.ToggleConcern(skin.ConcernAcneFighting)
	_ = c.ToggleConcern(skin.ConcernHydrating)

	if err := c.SubmitConcerns(context.Background()); err != nil {
		t.Fatalf("SubmitConcerns() error = %v", err)
	}

	want := []int{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1}
	if !reflect.DeepEqual(rec.features[0], want) {
		t.Fatalf("features = %v, want %v", rec.features[0], want)
	}
	if rec.categories[0] != "Serum" {
		t.Fatalf("category = %q, want Serum", rec.categories[0])
	}
	if c.Step() != StepRecommendations {
		t.Fatalf("step = %v, want recommendations", c.Step())
	}
	verdicts, ok := c.Verdicts()
	if !ok || verdicts.Len() != testVerdicts.Len() {
		t.Fatalf("verdicts = %v, %v", verdicts, ok)
	}
	if c.RecommendationStatus().State != OpSucceeded {
		t.Fatalf("recommendation status = %+v", c.RecommendationStatus())
	}
}

func TestSubmitConcernsFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"service error", common.NewServiceError("predictor", "Failed to get recommendations", 500, nil)},
		{"plain error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeRecommender{err: tt.err}, &fakeCatalog{})
			toConcerns(t, c)
			_ = c.ToggleConcern(skin.ConcernEczema)

			err := c.SubmitConcerns(context.Background())
			if !common.IsServiceError(err) {
				t.Fatalf("SubmitConcerns() error = %v, want ServiceError", err)
			}
			if c.Step() != StepConcerns {
				t.Fatalf("step = %v, want concerns", c.Step())
			}
			if _, ok := c.Verdicts(); ok {
				t.Fatal("verdicts present after failure")
			}
			status := c.RecommendationStatus()
			if status.State != OpFailed || status.Message != "Failed to get recommendations" {
				t.Fatalf("status = %+v", status)
			}
			if !c.Selection().Concerns[skin.ConcernEczema] {
				t.Fatal("selection lost after failure")
			}
		})
	}
}

func TestRequestProducts(t *testing.T) {
	cat := &fakeCatalog{products: testProducts}
	c := newTestController(&fakeRecommender{result: testVerdicts}, cat)

	if err := c.RequestProducts(context.Background()); !common.IsValidationError(err) {
		t.Fatalf("RequestProducts() during selection error = %v, want ValidationError", err)
	}

	toProducts(t, c)
	if c.Step() != StepProducts {
		t.Fatalf("step = %v, want products", c.Step())
	}
	if got := c.Products(); len(got) != len(testProducts) {
		t.Fatalf("products = %v", got)
	}
	entries := cat.verdicts[0].Entries()
	if len(entries) != 4 || entries[0].Ingredient != "hyaluronic" || entries[3].Verdict.Raw != "Maybe" {
		t.Fatalf("forwarded verdicts = %v, want the full ordered map", entries)
	}
}

func TestRequestProductsFailureKeepsRecommendation(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("boom")}
	c := newTestController(&fakeRecommender{result: testVerdicts}, cat)
	toRecommendations(t, c)

	err := c.RequestProducts(context.Background())
	if !common.IsServiceError(err) {
		t.Fatalf("RequestProducts() error = %v, want ServiceError", err)
	}
	if c.Step() != StepRecommendations {
		t.Fatalf("step = %v, want recommendations", c.Step())
	}
	verdicts, ok := c.Verdicts()
	if !ok || !reflect.DeepEqual(verdicts, testVerdicts) {
		t.Fatalf("verdicts changed after product failure: %v", verdicts)
	}
	if status := c.ProductStatus(); status.State != OpFailed || status.Message != "Failed to get product recommendations" {
		t.Fatalf("product status = %+v", status)
	}
}

func TestRequestProductsSkipsEmptyRecommendation(t *testing.T) {
	cat := &fakeCatalog{products: testProducts}
	c := newTestController(&fakeRecommender{result: skin.NewVerdictMap()}, cat)
	toRecommendations(t, c)

	if err := c.RequestProducts(context.Background()); !common.IsValidationError(err) {
		t.Fatalf("RequestProducts() error = %v, want ValidationError", err)
	}
	if cat.calls != 0 {
		t.Fatalf("catalog calls = %d, want 0", cat.calls)
	}
	if c.Step() != StepRecommendations || c.ProductStatus().State != OpIdle {
		t.Fatalf("step = %v, status = %+v", c.Step(), c.ProductStatus())
	}
}

func TestGoBackKeepsData(t *testing.T) {
	c := newTestController(&fakeRecommender{result: testVerdicts}, &fakeCatalog{products: testProducts})
	toProducts(t, c)

	if err := c.GoBack(); err != nil {
		t.Fatalf("GoBack() error = %v", err)
	}
	if c.Step() != StepRecommendations || len(c.Products()) != len(testProducts) {
		t.Fatalf("after back from products: step %v, %d products", c.Step(), len(c.Products()))
	}

	if err := c.GoBack(); err != nil {
		t.Fatalf("GoBack() error = %v", err)
	}
	if _, ok := c.Verdicts(); c.Step() != StepConcerns || !ok {
		t.Fatalf("after back from recommendations: step %v, verdicts %v", c.Step(), ok)
	}
	if !c.Selection().Concerns[skin.ConcernHydrating] {
		t.Fatal("concern selection lost")
	}

	if err := c.GoBack(); err != nil {
		t.Fatalf("GoBack() error = %v", err)
	}
	if got := c.Selection(); c.Step() != StepSelection || got.ProductCategory != "Serum" {
		t.Fatalf("after back from concerns: step %v, selection %+v", c.Step(), got)
	}

	if err := c.GoBack(); !common.IsValidationError(err) {
		t.Fatalf("GoBack() at first step error = %v, want ValidationError", err)
	}
}

func TestResubmitClearsProducts(t *testing.T) {
	c := newTestController(&fakeRecommender{result: testVerdicts}, &fakeCatalog{products: testProducts})
	toProducts(t, c)
	_ = c.GoBack()
	_ = c.GoBack()

	if err := c.SubmitConcerns(context.Background()); err != nil {
		t.Fatalf("SubmitConcerns() error = %v", err)
	}
	if c.Step() != StepRecommendations {
		t.Fatalf("step = %v, want recommendations", c.Step())
	}
	if len(c.Products()) != 0 {
		t.Fatalf("products = %v, want cleared by new recommendation", c.Products())
	}
}

func TestResetFromEveryStep(t *testing.T) {
	advance := map[string]func(*testing.T, *Controller){
		"selection":       func(t *testing.T, c *Controller) { _ = c.SelectFaceArea("Hair") },
		"concerns":        toConcerns,
		"recommendations": toRecommendations,
		"products":        toProducts,
	}

	for name, fn := range advance {
		fn := fn
		t.Run(name, func(t *testing.T) {
			c := newTestController(&fakeRecommender{result: testVerdicts}, &fakeCatalog{products: testProducts})
			fn(t, c)
			c.Reset()
			assertInitial(t, c)
		})
	}
}

func TestStaleRecommendationDiscardedAfterReset(t *testing.T) {
	rec := &fakeRecommender{
		result:  testVerdicts,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestController(rec, &fakeCatalog{})
	toConcerns(t, c)
	_ = c.ToggleConcern(skin.ConcernDrying)

	done := make(chan error, 1)
	go func() { done <- c.SubmitConcerns(context.Background()) }()

	<-rec.started
	if c.RecommendationStatus().State != OpInFlight {
		t.Fatalf("status = %+v, want in flight", c.RecommendationStatus())
	}
	c.Reset()
	close(rec.release)

	if err := <-done; err != nil {
		t.Fatalf("SubmitConcerns() error = %v, want stale response discarded silently", err)
	}
	assertInitial(t, c)
}

func TestStaleProductsDiscardedAfterReset(t *testing.T) {
	cat := &fakeCatalog{products: testProducts}
	c := newTestController(&fakeRecommender{result: testVerdicts}, cat)
	toRecommendations(t, c)

	cat.started = make(chan struct{})
	cat.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.RequestProducts(context.Background()) }()

	<-cat.started
	c.Reset()
	close(cat.release)

	if err := <-done; err != nil {
		t.Fatalf("RequestProducts() error = %v", err)
	}
	assertInitial(t, c)
}

func TestSecondSubmitWhileInFlightRejected(t *testing.T) {
	rec := &fakeRecommender{
		result:  testVerdicts,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestController(rec, &fakeCatalog{})
	toConcerns(t, c)
	_ = c.ToggleConcern(skin.ConcernAntiAging)

	done := make(chan error, 1)
	go func() { done <- c.SubmitConcerns(context.Background()) }()
	<-rec.started

	if err := c.SubmitConcerns(context.Background()); !common.IsValidationError(err) {
		t.Fatalf("second SubmitConcerns() error = %v, want ValidationError", err)
	}
	if c.Snapshot().CanSubmit {
		t.Fatal("CanSubmit = true while a request is in flight")
	}

	close(rec.release)
	if err := <-done; err != nil {
		t.Fatalf("SubmitConcerns() error = %v", err)
	}
	if rec.callCount() != 1 {
		t.Fatalf("predict calls = %d, want 1", rec.callCount())
	}
	if c.Step() != StepRecommendations {
		t.Fatalf("step = %v, want recommendations", c.Step())
	}
}

func TestToggleInvalidatesInFlightRecommendation(t *testing.T) {
	rec := &fakeRecommender{
		result:  testVerdicts,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestController(rec, &fakeCatalog{})
	toConcerns(t, c)
	_ = c.ToggleConcern(skin.ConcernBrightening)

	done := make(chan error, 1)
	go func() { done <- c.SubmitConcerns(context.Background()) }()
	<-rec.started

	if err := c.ToggleConcern(skin.ConcernDarkSpots); err != nil {
		t.Fatalf("ToggleConcern() error = %v", err)
	}
	close(rec.release)

	if err := <-done; err != nil {
		t.Fatalf("SubmitConcerns() error = %v", err)
	}
	if c.Step() != StepConcerns {
		t.Fatalf("step = %v, want concerns", c.Step())
	}
	if _, ok := c.Verdicts(); ok {
		t.Fatal("stale verdicts applied after concern change")
	}
}
