// internal/service/stock/application/saga/provision.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/port"
)

// ProvisionSaga 负责"建商品 + 建库存"的两步开通流程。
// 库存创建失败时删除刚建出来的商品作为补偿；
// 连删除都失败时升级为 OrphanedResourceError —— 这是唯一
// 必须有运维介入的场景，绝不能被吞掉。
type ProvisionSaga struct {
	inventory port.InventoryService
	product   port.ProductService
	tracer    trace.Tracer
}

// NewProvisionSaga 创建开通 Saga。
func NewProvisionSaga(inventory port.InventoryService, product port.ProductService, tracer trace.Tracer) *ProvisionSaga {
	return &ProvisionSaga{inventory: inventory, product: product, tracer: tracer}
}

type provisionState struct {
	created   *domain.CreatedProduct
	inventory map[string]any
}

// Execute 创建商品及其库存记录。
// initialQuantity 取调用方传入的初始库存；warehouseLocation 为空时使用默认仓位。
func (s *ProvisionSaga) Execute(ctx context.Context, product map[string]any, initialQuantity int, warehouseLocation string) (*domain.ProvisioningResult, *domain.CreatedProduct, error) {
	ctx, span := s.tracer.Start(ctx, "saga.ProvisionProduct")
	defer span.End()

	if warehouseLocation == "" {
		warehouseLocation = domain.DefaultWarehouseLocation
	}
	span.SetAttributes(attribute.String("warehouse.location", warehouseLocation))

	state := &provisionState{}

	steps := []Step{
		{
			// 步骤 1: 创建商品。响应缺 id 时在适配器层直接报
			// InvalidResponseError，此时下游没有任何提交，无需补偿。
			Name: "CreateProduct",
			Run: func(ctx context.Context) error {
				created, err := s.product.Create(ctx, product)
				if err != nil {
					return err
				}
				state.created = created
				logger.Ctx(ctx).Info().
					Str("product_id", created.ID).
					Msg("product created, provisioning inventory")
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.product.Delete(ctx, state.created.ID)
			},
		},
		{
			// 步骤 2: 用新商品 id 建立库存记录。
			Name: "CreateInventory",
			Run: func(ctx context.Context) error {
				inv, err := s.inventory.CreateItem(ctx, domain.InventoryRecord{
					ProductID:         state.created.ID,
					Quantity:          initialQuantity,
					WarehouseLocation: warehouseLocation,
				})
				if err != nil {
					return err
				}
				state.inventory = inv
				return nil
			},
		},
	}

	execResult := NewExecution("saga.ProvisionProduct", s.tracer, steps).Run(ctx)
	if execResult == nil {
		return &domain.ProvisioningResult{
			Success:   true,
			Product:   state.created.Raw,
			Inventory: state.inventory,
		}, state.created, nil
	}

	if execResult.FailedStep == "CreateProduct" {
		// 什么都没建出来
		return nil, nil, execResult.StepErr
	}

	if !execResult.Compensated() {
		// 商品还留在商品服务里，但没有对应库存
		logger.Ctx(ctx).Error().
			Str("product_id", state.created.ID).
			Msg("rollback delete failed, orphaned product requires manual cleanup")
		return nil, state.created, &domain.OrphanedResourceError{
			ProductID: state.created.ID,
			Err:       execResult.StepErr,
		}
	}

	logger.Ctx(ctx).Warn().
		Str("product_id", state.created.ID).
		Msg("inventory creation failed, product rolled back")
	return nil, state.created, execResult.StepErr
}
