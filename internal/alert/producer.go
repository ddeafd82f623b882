package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Oversold is emitted when a confirmation drives the authoritative
// stock count below zero. The decrement is applied anyway (the customer
// was already promised the goods); operational tooling consumes these
// events and decides what to do about the shortfall.
type Oversold struct {
	TenantID      uuid.UUID  `json:"tenant_id"`
	OrderID       uuid.UUID  `json:"order_id"`
	ProductID     uuid.UUID  `json:"product_id"`
	VariantID     *uuid.UUID `json:"variant_id,omitempty"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Quantity      int32      `json:"quantity"`
	StockAfter    int32      `json:"stock_after"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Producer) Oversold(ctx context.Context, e Oversold) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ProductID.String()),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
