// internal/service/stock/infrastructure/adapter/event_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/mq"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// 事件信封里的类型标识，消费方按它路由。
const (
	eventTypeStockAdjusted      = "stock.adjusted"
	eventTypeProductProvisioned = "product.provisioned"
)

// eventEnvelope 是发到 Kafka 的统一信封。
type eventEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// KafkaEventPublisher 是 port.EventPublisher 的 Kafka 实现。
// 以 productId 作为分区键，同一商品的事件保持有序。
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher 创建一个新的事件发布器。
func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) PublishStockAdjusted(ctx context.Context, event domain.StockAdjusted) error {
	return p.publish(ctx, event.ProductID, eventEnvelope{Type: eventTypeStockAdjusted, Payload: event})
}

func (p *KafkaEventPublisher) PublishProductProvisioned(ctx context.Context, event domain.ProductProvisioned) error {
	return p.publish(ctx, event.ProductID, eventEnvelope{Type: eventTypeProductProvisioned, Payload: event})
}

func (p *KafkaEventPublisher) publish(ctx context.Context, key string, envelope eventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(key), payload)
}
