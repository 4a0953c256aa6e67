// internal/service/stock/application/saga/adjust_stock.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/port"
)

// AdjustStockSaga 是两步式的库存变更 Saga:
// 先在库存服务（权威源）提交相对调整，再把新数量覆盖写进商品缓存。
// 第二步失败时用 previousQuantity - newQuantity 的反向调整冲正第一步。
//
// 状态机:
//
//	INIT → INVENTORY_ADJUSTED → PRODUCT_SYNCED  (成功)
//	                          → ROLLED_BACK     (失败但一致)
//	                          → INCONSISTENT    (失败且分叉，需人工介入)
type AdjustStockSaga struct {
	inventory port.InventoryService
	product   port.ProductService
	tracer    trace.Tracer
}

// NewAdjustStockSaga 创建库存变更 Saga。
func NewAdjustStockSaga(inventory port.InventoryService, product port.ProductService, tracer trace.Tracer) *AdjustStockSaga {
	return &AdjustStockSaga{inventory: inventory, product: product, tracer: tracer}
}

// adjustState 在步骤之间传递中间结果。
type adjustState struct {
	// previousQuantity 为 nil 表示事前读取失败，回滚基准不可用
	previousQuantity *int
	adjustment       *domain.AdjustmentResult
	productResp      map[string]any
}

// Execute 执行一次相对调整。调用方保证 delta 的符号和语义正确，
// 并且已经对 productID 加了串行化锁。
//
// 返回值: 成功时 SagaResult.Success == true；失败时 result 里尽量带上
// 已拿到的上游响应，error 是类型化的领域错误。
func (s *AdjustStockSaga) Execute(ctx context.Context, productID string, delta int, reason string) (*domain.SagaResult, error) {
	ctx, span := s.tracer.Start(ctx, "saga.AdjustStock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("stock.delta", delta),
	)

	state := &adjustState{}

	steps := []Step{
		{
			// 步骤 1: 尽力而为地读取事前数量，作为回滚基准。
			// 读取失败只告警不中断 —— 代价是本次执行失去回滚能力。
			Name: "ReadPreviousQuantity",
			Run: func(ctx context.Context) error {
				item, err := s.inventory.GetItem(ctx, productID)
				if err != nil {
					logger.Ctx(ctx).Warn().Err(err).
						Str("product_id", productID).
						Msg("could not read previous quantity, rollback will be unavailable")
					return nil
				}
				qty := item.Quantity
				state.previousQuantity = &qty
				return nil
			},
		},
		{
			// 步骤 2: 向权威源提交相对调整。
			// adjust 接口没有幂等键，这里绝不重试。
			Name: "AdjustInventory",
			Run: func(ctx context.Context) error {
				result, err := s.inventory.Adjust(ctx, domain.StockAdjustment{
					ProductID: productID,
					Delta:     delta,
					Reason:    reason,
				})
				if err != nil {
					return err
				}
				state.adjustment = result
				return nil
			},
			// 反向调整: previousQuantity - newQuantity 恰好是 -delta，
			// 但基于读到的事前值计算，而不是简单取反。
			// 事前值未知时不注册补偿（此时失败只能上报 INCONSISTENT）。
			Compensate: func(ctx context.Context) error {
				if state.previousQuantity == nil || state.adjustment == nil {
					return nil
				}
				_, err := s.inventory.Adjust(ctx, domain.StockAdjustment{
					ProductID: productID,
					Delta:     *state.previousQuantity - state.adjustment.NewQuantity,
					Reason:    domain.ReasonRollback,
				})
				return err
			},
		},
		{
			// 步骤 3: 把新数量覆盖写进商品缓存。
			Name: "SyncProductStock",
			Run: func(ctx context.Context) error {
				resp, err := s.product.UpdateStock(ctx, productID, state.adjustment.NewQuantity)
				if err != nil {
					return err
				}
				state.productResp = resp
				return nil
			},
		},
	}

	result := &domain.SagaResult{
		ProductID: productID,
		Delta:     delta,
		State:     domain.StateInit,
	}

	execResult := NewExecution("saga.AdjustStock", s.tracer, steps).Run(ctx)
	result.PreviousQuantity = state.previousQuantity
	if state.adjustment != nil {
		result.State = domain.StateInventoryAdjusted
		result.NewQuantity = state.adjustment.NewQuantity
		result.Inventory = state.adjustment.Raw
	}

	if execResult == nil {
		result.Success = true
		result.State = domain.StateProductSynced
		result.Product = state.productResp
		logger.Ctx(ctx).Info().
			Str("product_id", productID).
			Int("new_quantity", result.NewQuantity).
			Msg("stock adjusted and product cache synced")
		return result, nil
	}

	return result, s.classifyFailure(ctx, productID, state, execResult, result)
}

// classifyFailure 把执行失败映射为类型化的终态。
// 库存调整本身失败时还没有任何下游写入，错误原样上抛即可；
// 商品同步失败时要看补偿是否可用、是否成功。
func (s *AdjustStockSaga) classifyFailure(ctx context.Context, productID string, state *adjustState, execResult *Result, result *domain.SagaResult) error {
	if execResult.FailedStep != "SyncProductStock" {
		// 库存侧失败，没有触发任何补偿
		return execResult.StepErr
	}

	if state.previousQuantity == nil {
		// 事前数量未知，补偿被跳过: 两边可能已经分叉
		result.State = domain.StateInconsistent
		logger.Ctx(ctx).Error().
			Str("product_id", productID).
			Msg("product sync failed and no rollback baseline, manual repair may be needed")
		return &domain.InconsistentError{
			ProductID:             productID,
			CompensationAttempted: false,
			Err:                   execResult.StepErr,
		}
	}

	if execResult.Compensated() {
		result.State = domain.StateRolledBack
		logger.Ctx(ctx).Warn().
			Str("product_id", productID).
			Int("restored_quantity", *state.previousQuantity).
			Msg("product sync failed, inventory rolled back to previous quantity")
		return &domain.RolledBackError{ProductID: productID, Err: execResult.StepErr}
	}

	result.State = domain.StateInconsistent
	var compErr error
	for _, c := range execResult.Compensations {
		if c.Err != nil {
			compErr = c.Err
			break
		}
	}
	return &domain.InconsistentError{
		ProductID:             productID,
		CompensationAttempted: true,
		CompensationErr:       compErr,
		Err:                   execResult.StepErr,
	}
}
