// Package events publishes order lifecycle events to Kafka on a best-effort
// basis: failures are logged, never propagated to the request path.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusUpdated = "order-status-updated"
)

type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	UserID        string    `json:"userId"`
	TotalAmount   float64   `json:"totalAmount"`
	PaymentMethod string    `json:"paymentMethod"`
	PaymentStatus string    `json:"paymentStatus"`
	OrderStatus   string    `json:"orderStatus"`
	Timestamp     time.Time `json:"timestamp"`
}

// Producer wraps one writer per topic. A nil Producer (no brokers configured)
// is valid and drops every publish.
type Producer struct {
	created *kafka.Writer
	updated *kafka.Writer
}

// NewProducer returns nil when brokers is empty, which disables publishing.
func NewProducer(brokers string) *Producer {
	trimmed := strings.TrimSpace(brokers)
	if trimmed == "" {
		return nil
	}
	addrs := strings.Split(trimmed, ",")

	return &Producer{
		created: newWriter(addrs, TopicOrderCreated),
		updated: newWriter(addrs, TopicOrderStatusUpdated),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, event OrderEvent) {
	if p == nil {
		return
	}
	p.publish(ctx, p.created, event)
}

func (p *Producer) PublishOrderStatusUpdated(ctx context.Context, event OrderEvent) {
	if p == nil {
		return
	}
	p.publish(ctx, p.updated, event)
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, event OrderEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		log.Println("[EVENTS] [ERROR] marshal event failed:", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  time.Now(),
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[EVENTS] [ERROR] publish to %s failed: %v", writer.Topic, err)
	}
}

func (p *Producer) Close() {
	if p == nil {
		return
	}
	if err := p.created.Close(); err != nil {
		log.Println("[EVENTS] [ERROR] close writer failed:", err)
	}
	if err := p.updated.Close(); err != nil {
		log.Println("[EVENTS] [ERROR] close writer failed:", err)
	}
}
