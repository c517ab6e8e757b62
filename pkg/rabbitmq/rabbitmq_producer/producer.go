package rabbitmq_producer

import (
	"context"
	"fmt"
	"sauto-parser/pkg/rabbitmq/rabbitmq_common"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// PublisherConfig - настройки издателя.
type PublisherConfig struct {
	rabbitmq_common.Config
	ExchangeName    string // пусто - default exchange
	ExchangeType    string // direct, fanout, topic, headers
	DurableExchange bool

	// false - обменник должен уже существовать
	DeclareExchangeIfMissing bool
}

// Publisher публикует сообщения в один обменник. Канал amqp не потокобезопасен,
// поэтому публикации сериализуются мьютексом.
type Publisher struct {
	config     PublisherConfig
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewPublisher подключается к брокеру и при необходимости объявляет обменник.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	if cfg.DeclareExchangeIfMissing && (cfg.ExchangeName == "") != (cfg.ExchangeType == "") {
		return nil, fmt.Errorf("producer: exchange name and type must be set together when declaring")
	}

	conn, ch, err := rabbitmq_common.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("producer: %w", err)
	}

	if cfg.DeclareExchangeIfMissing && cfg.ExchangeName != "" {
		log.Info().
			Str("exchange", cfg.ExchangeName).
			Str("type", cfg.ExchangeType).
			Bool("durable", cfg.DurableExchange).
			Msg("Producer: declaring exchange")
		err = ch.ExchangeDeclare(cfg.ExchangeName, cfg.ExchangeType, cfg.DurableExchange, false, false, false, nil)
		if err != nil {
			_ = rabbitmq_common.CloseAll(ch, conn)
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
		}
	}

	log.Info().Msg("Producer: connected, channel opened")
	return &Publisher{config: cfg, connection: conn, channel: ch}, nil
}

// Publish публикует сообщение с заданным ключом маршрутизации.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return fmt.Errorf("producer: not connected or channel/connection is closed")
	}
	err := p.channel.PublishWithContext(ctx, p.config.ExchangeName, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := rabbitmq_common.CloseAll(p.channel, p.connection)
	p.channel, p.connection = nil, nil
	if err != nil {
		log.Warn().Err(err).Msg("Producer: error while closing")
		return err
	}
	log.Info().Msg("Producer: closed")
	return nil
}
