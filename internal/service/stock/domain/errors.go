// internal/service/stock/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ValidationError 表示调用方输入不合法，在任何上游调用之前就被拒绝。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError 构造一个输入校验错误。
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError 表示下游服务不可用或返回了非 2xx。
// Status == 0 表示网络层失败，接口层会映射成 503。
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// InvalidResponseError 表示下游返回了 2xx 但缺少约定字段，
// 属于契约被破坏，不是可重试的瞬时故障。
type InvalidResponseError struct {
	Service string
	Field   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response from %s: missing %s field", e.Service, e.Field)
}

// InconsistentError 表示补偿已尝试但失败，或因事前数量未知而被跳过。
// 此时库存和商品两边的数据可能已经分叉，需要人工修复，
// 绝不能被折叠成一个普通 500。
type InconsistentError struct {
	ProductID string
	// CompensationAttempted 为 false 时表示因 previousQuantity 未知而没有发起冲正
	CompensationAttempted bool
	CompensationErr       error
	Err                   error
}

func (e *InconsistentError) Error() string {
	if !e.CompensationAttempted {
		return fmt.Sprintf("stock for product %s may be inconsistent: rollback unavailable (previous quantity unknown): %v", e.ProductID, e.Err)
	}
	return fmt.Sprintf("stock for product %s is inconsistent: rollback failed: %v (original error: %v)", e.ProductID, e.CompensationErr, e.Err)
}

func (e *InconsistentError) Unwrap() error { return e.Err }

// OrphanedResourceError 表示开通 Saga 的补偿删除失败，
// 商品服务里残留了一个没有对应库存的商品，需要人工清理。
type OrphanedResourceError struct {
	ProductID string
	Err       error
}

func (e *OrphanedResourceError) Error() string {
	return fmt.Sprintf("product %s created but inventory sync failed and rollback delete failed, manual cleanup required: %v", e.ProductID, e.Err)
}

func (e *OrphanedResourceError) Unwrap() error { return e.Err }

// RolledBackError 表示主流程失败但冲正成功，两边数据已回到事前状态。
// 对调用方来说这仍是一次失败，但不需要人工介入。
type RolledBackError struct {
	ProductID string
	Err       error
}

func (e *RolledBackError) Error() string {
	return fmt.Sprintf("stock mutation for product %s failed and was rolled back: %v", e.ProductID, e.Err)
}

func (e *RolledBackError) Unwrap() error { return e.Err }

// UpstreamStatus 从错误链里提取下游返回的 HTTP 状态码。
func UpstreamStatus(err error) (int, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status > 0 {
		return ue.Status, true
	}
	return 0, false
}
