// internal/service/stock/domain/state.go
package domain

// SagaState 定义了库存变更 Saga 的生命周期状态
type SagaState string

const (
	StateInit              SagaState = "INIT"                // 尚未对任何服务产生写入
	StateInventoryAdjusted SagaState = "INVENTORY_ADJUSTED"  // 库存服务已提交，商品缓存还未同步
	StateProductSynced     SagaState = "PRODUCT_SYNCED"      // 终态: 两边一致，成功
	StateRolledBack        SagaState = "ROLLED_BACK"         // 终态: 冲正成功，两边回到事前状态
	StateInconsistent      SagaState = "INCONSISTENT"        // 终态: 冲正失败或无法冲正，需要人工介入
)

// 开通 Saga 的终态，记流水时与变更 Saga 共用同一个类型。
const (
	StateProvisioned SagaState = "PROVISIONED" // 商品和库存都建好了
	StateOrphaned    SagaState = "ORPHANED"    // 库存创建失败且补偿删除也失败，商品成了孤儿
)

// Terminal 返回该状态是否为终态。
func (s SagaState) Terminal() bool {
	switch s {
	case StateProductSynced, StateRolledBack, StateInconsistent, StateProvisioned, StateOrphaned:
		return true
	}
	return false
}
