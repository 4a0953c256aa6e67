// internal/pkg/constants/constants.go
package constants

// 下游服务的逻辑名，同时也是它们在 Nacos 里的注册名。
const (
	ProductService   = "product-service"
	InventoryService = "inventory-service"
	OrderService     = "order-service"
	UserService      = "user-service"
)
