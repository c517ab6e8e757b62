package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sauto-parser/internal/core/domain"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 10 * time.Second

// Publisher - то, что нужно адаптеру от rabbitmq_producer.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// RecordQueueAdapter реализует RecordSinkPort: каждая принятая запись уходит в
// очередь как JSON с сохранением порядка полей.
type RecordQueueAdapter struct {
	producer   Publisher
	routingKey string
}

// NewRecordQueueAdapter создает адаптер поверх уже подключенного издателя.
func NewRecordQueueAdapter(producer Publisher, routingKey string) (*RecordQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &RecordQueueAdapter{producer: producer, routingKey: routingKey}, nil
}

// Save публикует запись.
func (a *RecordQueueAdapter) Save(ctx context.Context, record domain.Record) error {
	id, _ := record.Get(domain.FieldID)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal record %s: %w", id, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    id.String(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to publish record %s: %w", id, err)
	}
	log.Debug().Str("advert_id", id.String()).Str("routing_key", a.routingKey).Msg("RecordQueue: record published")
	return nil
}
