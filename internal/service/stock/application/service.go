// internal/service/stock/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/application/saga"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/port"
)

// bulkSyncPageSize 是全量对账时每页拉取的条数。
const bulkSyncPageSize = 50

// StockService 编排库存和商品两个服务之间的同步。
// Journal / Events / Cache 都是可选依赖，传 nil 时对应能力自动关闭，
// Saga 主流程不依赖其中任何一个。
type StockService struct {
	inventory port.InventoryService
	product   port.ProductService
	locker    port.Locker
	journal   port.Journal
	events    port.EventPublisher
	cache     port.StockCache
	tracer    trace.Tracer

	adjustSaga    *saga.AdjustStockSaga
	provisionSaga *saga.ProvisionSaga
}

// ServiceConfig 聚合 StockService 的依赖。
type ServiceConfig struct {
	Inventory port.InventoryService
	Product   port.ProductService
	Locker    port.Locker
	Journal   port.Journal
	Events    port.EventPublisher
	Cache     port.StockCache
	Tracer    trace.Tracer
}

// NewStockService 创建库存编排服务。
func NewStockService(cfg ServiceConfig) *StockService {
	return &StockService{
		inventory:     cfg.Inventory,
		product:       cfg.Product,
		locker:        cfg.Locker,
		journal:       cfg.Journal,
		events:        cfg.Events,
		cache:         cfg.Cache,
		tracer:        cfg.Tracer,
		adjustSaga:    saga.NewAdjustStockSaga(cfg.Inventory, cfg.Product, cfg.Tracer),
		provisionSaga: saga.NewProvisionSaga(cfg.Inventory, cfg.Product, cfg.Tracer),
	}
}

// AddStock 给商品增加 quantity 件库存。
func (s *StockService) AddStock(ctx context.Context, productID string, quantity int) (*domain.SagaResult, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be a positive number")
	}
	return s.adjustStock(ctx, productID, quantity, domain.ReasonStockAdded)
}

// RemoveStock 从商品扣减 quantity 件库存。
func (s *StockService) RemoveStock(ctx context.Context, productID string, quantity int) (*domain.SagaResult, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be a positive number")
	}
	return s.adjustStock(ctx, productID, -quantity, domain.ReasonStockRemoved)
}

// adjustStock 对同一商品的并发变更先串行化，再跑两步 Saga。
// 没有这把锁，两个并发调用会把彼此的回滚基准读脏。
func (s *StockService) adjustStock(ctx context.Context, productID string, delta int, reason string) (*domain.SagaResult, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product id is required")
	}

	ctx, span := s.tracer.Start(ctx, "app.AdjustStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("stock.delta", delta),
	)

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, productID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	result, err := s.adjustSaga.Execute(ctx, productID, delta, reason)

	sagaOutcomes.WithLabelValues(domain.OperationAdjustStock, string(result.State)).Inc()
	s.recordJournal(ctx, domain.JournalEntry{
		SagaID:           uuid.New().String(),
		Operation:        domain.OperationAdjustStock,
		ProductID:        productID,
		Delta:            delta,
		PreviousQuantity: result.PreviousQuantity,
		NewQuantity:      newQuantityOf(result),
		State:            result.State,
		Error:            errString(err),
	})

	// 库存侧一旦有过写入，缓存里的数量就过期了
	if s.cache != nil && result.State != domain.StateInit {
		s.cache.Invalidate(ctx, productID)
	}

	if err != nil {
		return result, err
	}

	s.publishStockAdjusted(ctx, domain.StockAdjusted{
		EventID:     uuid.New().String(),
		ProductID:   productID,
		Delta:       delta,
		NewQuantity: result.NewQuantity,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
	return result, nil
}

// GetStock 查询单件商品库存，优先走读缓存。
func (s *StockService) GetStock(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product id is required")
	}

	ctx, span := s.tracer.Start(ctx, "app.GetStock")
	defer span.End()

	if s.cache != nil {
		if item, ok := s.cache.Get(ctx, productID); ok {
			stockCacheHits.WithLabelValues("hit").Inc()
			return item, nil
		}
		stockCacheHits.WithLabelValues("miss").Inc()
	}

	item, err := s.inventory.GetItem(ctx, productID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, item)
	}
	return item, nil
}

// GetLowStock 返回低库存商品列表。
func (s *StockService) GetLowStock(ctx context.Context) ([]map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetLowStock")
	defer span.End()
	return s.inventory.LowStock(ctx)
}

// SyncStock 把单件商品的权威数量无条件覆盖进商品缓存。
// 这是一次不设防的单点对账: 不读事前值、不补偿，失败原样上抛。
func (s *StockService) SyncStock(ctx context.Context, productID string) (*SyncResult, error) {
	if productID == "" {
		return nil, domain.NewValidationError("product id is required")
	}

	ctx, span := s.tracer.Start(ctx, "app.SyncStock")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	// 绕过缓存，对账必须基于权威源的实时值
	item, err := s.inventory.GetItem(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.product.UpdateStock(ctx, productID, item.Quantity); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, item)
	}

	logger.Ctx(ctx).Info().
		Str("product_id", productID).
		Int("stock", item.Quantity).
		Msg("stock synced to product service")
	return &SyncResult{Success: true, ProductID: productID, Stock: item.Quantity}, nil
}

// SyncAllProducts 全量扫一遍库存清单，把每件商品的数量推进商品缓存。
// 单条失败只计入报告不中断；某一页拉取失败时提前终止并返回部分报告，
// 漏掉的部分留给下一轮对账 —— 这条路径天然容忍漂移。
func (s *StockService) SyncAllProducts(ctx context.Context) (*domain.BulkSyncReport, error) {
	ctx, span := s.tracer.Start(ctx, "app.SyncAllProducts")
	defer span.End()

	report := &domain.BulkSyncReport{
		Errors:  []domain.BulkSyncError{},
		Details: []domain.BulkSyncItem{},
	}

	logger.Ctx(ctx).Info().Msg("starting bulk sync from inventory to product service")

	for page := 1; ; page++ {
		inventoryPage, err := s.inventory.ListItems(ctx, page, bulkSyncPageSize)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Int("page", page).
				Msg("failed to fetch inventory page, stopping sweep with partial report")
			break
		}

		logger.Ctx(ctx).Info().
			Int("page", page).
			Int("items", len(inventoryPage.Items)).
			Msg("processing inventory page")

		for _, item := range inventoryPage.Items {
			if _, err := s.product.UpdateStock(ctx, item.ProductID, item.Quantity); err != nil {
				report.Failed++
				bulkSyncItems.WithLabelValues("failed").Inc()
				report.Errors = append(report.Errors, domain.BulkSyncError{
					ProductID: item.ProductID,
					Error:     err.Error(),
				})
				report.Details = append(report.Details, domain.BulkSyncItem{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Status:    "failed",
					Error:     err.Error(),
				})
				continue
			}
			report.Synced++
			bulkSyncItems.WithLabelValues("synced").Inc()
			report.Details = append(report.Details, domain.BulkSyncItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Status:    "success",
			})
		}

		if inventoryPage.CurrentPage >= inventoryPage.LastPage {
			break
		}
	}

	logger.Ctx(ctx).Info().
		Int("synced", report.Synced).
		Int("failed", report.Failed).
		Msg("bulk sync completed")
	return report, nil
}

// CreateProductWithInventory 跑"建商品 + 建库存"开通 Saga。
func (s *StockService) CreateProductWithInventory(ctx context.Context, input ProductInput, warehouseLocation string) (*domain.ProvisioningResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "app.CreateProductWithInventory")
	defer span.End()

	result, created, err := s.provisionSaga.Execute(ctx, input.ToPayload(), input.Stock, warehouseLocation)

	state := provisionState(err, created)
	sagaOutcomes.WithLabelValues(domain.OperationProvisionProduct, string(state)).Inc()

	entry := domain.JournalEntry{
		SagaID:    uuid.New().String(),
		Operation: domain.OperationProvisionProduct,
		State:     state,
		Error:     errString(err),
	}
	if created != nil {
		entry.ProductID = created.ID
	}
	s.recordJournal(ctx, entry)

	if err != nil {
		return nil, err
	}

	s.publishProductProvisioned(ctx, domain.ProductProvisioned{
		EventID:           uuid.New().String(),
		ProductID:         created.ID,
		InitialQuantity:   input.Stock,
		WarehouseLocation: warehouseLocation,
		OccurredAt:        time.Now().UTC(),
	})
	return result, nil
}

// recordJournal 落流水是尽力而为的: 存储不可用时只告警，不影响主流程。
func (s *StockService) recordJournal(ctx context.Context, entry domain.JournalEntry) {
	if s.journal == nil {
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("operation", entry.Operation).
			Str("product_id", entry.ProductID).
			Msg("failed to record saga journal entry")
	}
}

func (s *StockService) publishStockAdjusted(ctx context.Context, event domain.StockAdjusted) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishStockAdjusted(ctx, event); err != nil {
		// 事件只是通知，发布失败不应让已经成功的 Saga 变成失败
		logger.Ctx(ctx).Warn().Err(err).
			Str("product_id", event.ProductID).
			Msg("failed to publish stock adjusted event")
	}
}

func (s *StockService) publishProductProvisioned(ctx context.Context, event domain.ProductProvisioned) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductProvisioned(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("product_id", event.ProductID).
			Msg("failed to publish product provisioned event")
	}
}

func provisionState(err error, created *domain.CreatedProduct) domain.SagaState {
	var oe *domain.OrphanedResourceError
	switch {
	case err == nil:
		return domain.StateProvisioned
	case errors.As(err, &oe):
		return domain.StateOrphaned
	case created == nil:
		// 第一步就挂了，下游什么都没提交
		return domain.StateInit
	default:
		return domain.StateRolledBack
	}
}

func newQuantityOf(result *domain.SagaResult) *int {
	if result == nil || result.State == domain.StateInit {
		return nil
	}
	q := result.NewQuantity
	return &q
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
