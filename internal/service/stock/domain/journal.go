// internal/service/stock/domain/journal.go
package domain

// JournalEntry 是一次 Saga 执行的落库快照。
// INCONSISTENT / 孤儿商品这类需要人工修复的终态都能在流水里查到，
// trace_id 字段可以直接跳到 Jaeger 里对应的链路。
type JournalEntry struct {
	SagaID    string
	Operation string // "adjust_stock" | "provision_product"
	ProductID string
	Delta     int
	// PreviousQuantity 为 nil 表示事前读取失败，本次执行没有回滚基准
	PreviousQuantity *int
	NewQuantity      *int
	State            SagaState
	Error            string
	TraceID          string
}

const (
	OperationAdjustStock      = "adjust_stock"
	OperationProvisionProduct = "provision_product"
)
