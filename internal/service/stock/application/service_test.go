package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/application"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

type stubInventory struct {
	quantity   int
	getErr     error
	getCalls   int
	adjustErr  error
	pages      []*domain.InventoryPage
	pageErrAt  int
	listCalls  int
	createErr  error
}

func (s *stubInventory) GetItem(_ context.Context, productID string) (*domain.InventoryItem, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.InventoryItem{ProductID: productID, Quantity: s.quantity, Raw: map[string]any{"quantity": s.quantity}}, nil
}

func (s *stubInventory) LowStock(context.Context) ([]map[string]any, error) {
	return []map[string]any{{"product_id": "p9", "quantity": float64(2)}}, nil
}

func (s *stubInventory) ListItems(_ context.Context, page, perPage int) (*domain.InventoryPage, error) {
	s.listCalls++
	if s.pageErrAt > 0 && page >= s.pageErrAt {
		return nil, &domain.UpstreamError{Service: "inventory-service", Status: 500}
	}
	if page > len(s.pages) {
		return &domain.InventoryPage{CurrentPage: page, LastPage: page}, nil
	}
	return s.pages[page-1], nil
}

func (s *stubInventory) Adjust(_ context.Context, adj domain.StockAdjustment) (*domain.AdjustmentResult, error) {
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	s.quantity += adj.Delta
	return &domain.AdjustmentResult{NewQuantity: s.quantity, Raw: map[string]any{"quantity": s.quantity}}, nil
}

func (s *stubInventory) CreateItem(_ context.Context, rec domain.InventoryRecord) (map[string]any, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return map[string]any{"product_id": rec.ProductID}, nil
}

type stubProduct struct {
	createID    string
	createErr   error
	updateErr   error
	updateErrs  map[string]error
	updateCalls map[string]int
	deleteErr   error
}

func (s *stubProduct) Create(_ context.Context, product map[string]any) (*domain.CreatedProduct, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.CreatedProduct{ID: s.createID, Raw: map[string]any{"id": s.createID}}, nil
}

func (s *stubProduct) UpdateStock(_ context.Context, productID string, stock int) (map[string]any, error) {
	if s.updateCalls == nil {
		s.updateCalls = map[string]int{}
	}
	if err, ok := s.updateErrs[productID]; ok {
		return nil, err
	}
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updateCalls[productID] = stock
	return map[string]any{"id": productID, "stock": stock}, nil
}

func (s *stubProduct) Delete(context.Context, string) error { return s.deleteErr }

type stubLocker struct {
	acquired []string
	released int
	err      error
}

func (s *stubLocker) Acquire(_ context.Context, key string) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	s.acquired = append(s.acquired, key)
	return func() { s.released++ }, nil
}

type stubJournal struct {
	entries []domain.JournalEntry
	err     error
}

func (s *stubJournal) Record(_ context.Context, entry domain.JournalEntry) error {
	s.entries = append(s.entries, entry)
	return s.err
}

type stubEvents struct {
	adjusted    []domain.StockAdjusted
	provisioned []domain.ProductProvisioned
}

func (s *stubEvents) PublishStockAdjusted(_ context.Context, e domain.StockAdjusted) error {
	s.adjusted = append(s.adjusted, e)
	return nil
}

func (s *stubEvents) PublishProductProvisioned(_ context.Context, e domain.ProductProvisioned) error {
	s.provisioned = append(s.provisioned, e)
	return nil
}

type stubCache struct {
	items       map[string]*domain.InventoryItem
	gets        int
	sets        int
	invalidated []string
}

func (s *stubCache) Get(_ context.Context, productID string) (*domain.InventoryItem, bool) {
	s.gets++
	item, ok := s.items[productID]
	return item, ok
}

func (s *stubCache) Set(_ context.Context, item *domain.InventoryItem) {
	if s.items == nil {
		s.items = map[string]*domain.InventoryItem{}
	}
	s.items[item.ProductID] = item
	s.sets++
}

func (s *stubCache) Invalidate(_ context.Context, productID string) {
	delete(s.items, productID)
	s.invalidated = append(s.invalidated, productID)
}

type serviceFixture struct {
	inventory *stubInventory
	product   *stubProduct
	locker    *stubLocker
	journal   *stubJournal
	events    *stubEvents
	cache     *stubCache
	service   *application.StockService
}

func newFixture(inv *stubInventory, prod *stubProduct) *serviceFixture {
	f := &serviceFixture{
		inventory: inv,
		product:   prod,
		locker:    &stubLocker{},
		journal:   &stubJournal{},
		events:    &stubEvents{},
		cache:     &stubCache{},
	}
	f.service = application.NewStockService(application.ServiceConfig{
		Inventory: f.inventory,
		Product:   f.product,
		Locker:    f.locker,
		Journal:   f.journal,
		Events:    f.events,
		Cache:     f.cache,
		Tracer:    noop.NewTracerProvider().Tracer("test"),
	})
	return f
}

func TestAddStockRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{})

	for _, q := range []int{0, -4} {
		_, err := f.service.AddStock(context.Background(), "p1", q)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	}
	// 校验失败必须发生在任何上游调用之前
	assert.Zero(t, f.inventory.getCalls)
	assert.Empty(t, f.locker.acquired)
}

func TestRemoveStockNegatesDelta(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{})

	result, err := f.service.RemoveStock(context.Background(), "p1", 4)

	require.NoError(t, err)
	assert.Equal(t, -4, result.Delta)
	assert.Equal(t, 6, result.NewQuantity)
}

func TestAddStockHappyPathSideEffects(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{})

	result, err := f.service.AddStock(context.Background(), "p1", 5)

	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []string{"p1"}, f.locker.acquired)
	assert.Equal(t, 1, f.locker.released)

	require.Len(t, f.journal.entries, 1)
	entry := f.journal.entries[0]
	assert.Equal(t, domain.OperationAdjustStock, entry.Operation)
	assert.Equal(t, domain.StateProductSynced, entry.State)
	require.NotNil(t, entry.PreviousQuantity)
	assert.Equal(t, 10, *entry.PreviousQuantity)
	require.NotNil(t, entry.NewQuantity)
	assert.Equal(t, 15, *entry.NewQuantity)
	assert.NotEmpty(t, entry.SagaID)

	require.Len(t, f.events.adjusted, 1)
	assert.Equal(t, 5, f.events.adjusted[0].Delta)
	assert.Equal(t, domain.ReasonStockAdded, f.events.adjusted[0].Reason)

	assert.Equal(t, []string{"p1"}, f.cache.invalidated)
}

func TestAdjustStockReleasesLockOnFailure(t *testing.T) {
	inv := &stubInventory{quantity: 10, adjustErr: &domain.UpstreamError{Service: "inventory-service", Status: 503}}
	f := newFixture(inv, &stubProduct{})

	_, err := f.service.AddStock(context.Background(), "p1", 5)

	require.Error(t, err)
	assert.Equal(t, 1, f.locker.released)
	// 库存侧没有写入成功，不需要失效缓存
	assert.Empty(t, f.cache.invalidated)
	// 失败也要留流水
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, domain.StateInit, f.journal.entries[0].State)
	assert.NotEmpty(t, f.journal.entries[0].Error)
	assert.Empty(t, f.events.adjusted)
}

func TestAdjustStockInvalidatesCacheAfterRollback(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{updateErr: errors.New("boom")})
	f.cache.items = map[string]*domain.InventoryItem{"p1": {ProductID: "p1", Quantity: 10}}

	_, err := f.service.AddStock(context.Background(), "p1", 5)

	var re *domain.RolledBackError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"p1"}, f.cache.invalidated)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, domain.StateRolledBack, f.journal.entries[0].State)
}

func TestGetStockCacheHitSkipsInventory(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{})
	f.cache.items = map[string]*domain.InventoryItem{"p1": {ProductID: "p1", Quantity: 7}}

	item, err := f.service.GetStock(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)
	assert.Zero(t, f.inventory.getCalls)
}

func TestGetStockCacheMissPopulatesCache(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 10}, &stubProduct{})

	item, err := f.service.GetStock(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 1, f.inventory.getCalls)
	assert.Equal(t, 1, f.cache.sets)
}

func TestSyncStockBypassesCache(t *testing.T) {
	f := newFixture(&stubInventory{quantity: 33}, &stubProduct{})
	// 缓存里是过期值，对账必须无视它
	f.cache.items = map[string]*domain.InventoryItem{"p1": {ProductID: "p1", Quantity: 1}}

	result, err := f.service.SyncStock(context.Background(), "p1")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 33, result.Stock)
	assert.Equal(t, 1, f.inventory.getCalls)
	assert.Equal(t, 33, f.product.updateCalls["p1"])
	assert.Equal(t, 33, f.cache.items["p1"].Quantity)
}

func TestSyncAllProductsContinuesOnItemFailure(t *testing.T) {
	inv := &stubInventory{pages: []*domain.InventoryPage{
		{
			Items: []domain.InventoryRecord{
				{ProductID: "p1", Quantity: 5},
				{ProductID: "p2", Quantity: 8},
			},
			CurrentPage: 1, LastPage: 2,
		},
		{
			Items:       []domain.InventoryRecord{{ProductID: "p3", Quantity: 2}},
			CurrentPage: 2, LastPage: 2,
		},
	}}
	prod := &stubProduct{updateErrs: map[string]error{
		"p2": &domain.UpstreamError{Service: "product-service", Status: 500},
	}}
	f := newFixture(inv, prod)

	report, err := f.service.SyncAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "p2", report.Errors[0].ProductID)
	assert.Len(t, report.Details, 3)
	assert.Equal(t, 2, inv.listCalls)
}

func TestSyncAllProductsStopsOnPageError(t *testing.T) {
	inv := &stubInventory{
		pages: []*domain.InventoryPage{{
			Items:       []domain.InventoryRecord{{ProductID: "p1", Quantity: 5}},
			CurrentPage: 1, LastPage: 3,
		}},
		pageErrAt: 2,
	}
	f := newFixture(inv, &stubProduct{})

	report, err := f.service.SyncAllProducts(context.Background())

	// 页拉取失败提前终止，但已处理的部分仍然计入报告
	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, inv.listCalls)
}

func TestCreateProductWithInventoryValidation(t *testing.T) {
	f := newFixture(&stubInventory{}, &stubProduct{createID: "42"})

	_, err := f.service.CreateProductWithInventory(context.Background(),
		application.ProductInput{Name: "", Stock: 5}, "")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, f.journal.entries)
}

func TestCreateProductWithInventorySuccess(t *testing.T) {
	f := newFixture(&stubInventory{}, &stubProduct{createID: "42"})

	result, err := f.service.CreateProductWithInventory(context.Background(),
		application.ProductInput{Name: "Widget", SKU: "W-1", Price: decimal.NewFromInt(9), Stock: 25}, "")

	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, domain.OperationProvisionProduct, f.journal.entries[0].Operation)
	assert.Equal(t, domain.StateProvisioned, f.journal.entries[0].State)
	assert.Equal(t, "42", f.journal.entries[0].ProductID)

	require.Len(t, f.events.provisioned, 1)
	assert.Equal(t, 25, f.events.provisioned[0].InitialQuantity)
}

func TestCreateProductWithInventoryOrphaned(t *testing.T) {
	inv := &stubInventory{createErr: errors.New("inventory down")}
	prod := &stubProduct{createID: "42", deleteErr: errors.New("delete refused")}
	f := newFixture(inv, prod)

	_, err := f.service.CreateProductWithInventory(context.Background(),
		application.ProductInput{Name: "Widget", Stock: 5}, "")

	var oe *domain.OrphanedResourceError
	require.ErrorAs(t, err, &oe)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, domain.StateOrphaned, f.journal.entries[0].State)
	assert.Empty(t, f.events.provisioned)
}
