package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sauto-parser/internal/core/domain"
	"sauto-parser/pkg/rabbitmq/rabbitmq_consumer"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// RecordHandler - use case, которому передается каждая полученная запись.
type RecordHandler interface {
	Execute(ctx context.Context, record domain.Record) error
}

// RecordConsumerAdapter - входящий адаптер: слушает очередь записей и
// передает их в use case.
type RecordConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  RecordHandler
}

// NewRecordConsumerAdapter создает адаптер и подключает потребителя.
func NewRecordConsumerAdapter(cfg rabbitmq_consumer.ConsumerConfig, useCase RecordHandler) (*RecordConsumerAdapter, error) {
	adapter := &RecordConsumerAdapter{useCase: useCase}

	consumer, err := rabbitmq_consumer.NewConsumer(cfg, adapter.messageHandler)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for records: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// messageHandler: битое сообщение отбрасывается без повтора, запись с чужим
// набором колонок тоже. Повторять их бессмысленно.
func (a *RecordConsumerAdapter) messageHandler(ctx context.Context, d amqp.Delivery) (ack bool, requeueOnError bool, err error) {
	var record domain.Record
	if err := json.Unmarshal(d.Body, &record); err != nil {
		return false, false, fmt.Errorf("unmarshal error: %w", err)
	}
	if err := a.useCase.Execute(ctx, record); err != nil {
		return false, false, err
	}
	log.Debug().Uint64("tag", d.DeliveryTag).Msg("RecordConsumer: record accepted")
	return true, false, nil
}

// Start реализует EventListenerPort.
func (a *RecordConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close реализует EventListenerPort.
func (a *RecordConsumerAdapter) Close() error {
	return a.consumer.Close()
}
