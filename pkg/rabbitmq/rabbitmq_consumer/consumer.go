package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sauto-parser/pkg/rabbitmq/rabbitmq_common"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// MessageHandler обрабатывает одно сообщение. ack=false при err=nil означает
// отказ без повторной доставки.
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) (ack bool, requeueOnError bool, err error)

// ConsumerConfig - настройки потребителя.
type ConsumerConfig struct {
	rabbitmq_common.Config

	QueueName       string // пусто - имя выдаст сервер (только при DeclareQueue)
	DeclareQueue    bool
	DurableQueue    bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table

	// Привязка очереди к обменнику; пустое имя - без привязки.
	ExchangeName    string
	ExchangeType    string
	DeclareExchange bool
	RoutingKey      string

	PrefetchCount int
	ConsumerTag   string

	// Сколько сообщений обрабатывается одновременно. 1 - строго по порядку.
	Concurrency int
}

// Consumer читает очередь и передает сообщения обработчику.
type Consumer struct {
	config     ConsumerConfig
	handler    MessageHandler
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string

	wg sync.WaitGroup
}

// NewConsumer подключается и настраивает очередь, обменник и привязку.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return nil, fmt.Errorf("consumer: queue name is required if DeclareQueue is false")
	}
	if cfg.DeclareExchange && cfg.ExchangeName != "" && cfg.ExchangeType == "" {
		return nil, fmt.Errorf("consumer: exchange type is required if declaring an exchange")
	}
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	c := &Consumer{config: cfg, handler: handler}
	if err := c.setup(); err != nil {
		return nil, fmt.Errorf("consumer: initial connection and setup failed: %w", err)
	}
	return c, nil
}

func (c *Consumer) setup() error {
	conn, ch, err := rabbitmq_common.Dial(c.config.URL)
	if err != nil {
		return err
	}
	c.connection, c.channel = conn, ch

	fail := func(format string, args ...any) error {
		_ = rabbitmq_common.CloseAll(c.channel, c.connection)
		return fmt.Errorf(format, args...)
	}

	if c.config.PrefetchCount > 0 {
		if err := ch.Qos(c.config.PrefetchCount, 0, false); err != nil {
			return fail("failed to set QoS: %w", err)
		}
	}

	c.queueName = c.config.QueueName
	if c.config.DeclareQueue {
		q, err := ch.QueueDeclare(c.config.QueueName, c.config.DurableQueue, c.config.AutoDeleteQueue, false, false, c.config.QueueArgs)
		if err != nil {
			return fail("failed to declare queue '%s': %w", c.config.QueueName, err)
		}
		c.queueName = q.Name
	}

	if c.config.ExchangeName != "" {
		if c.config.DeclareExchange {
			if err := ch.ExchangeDeclare(c.config.ExchangeName, c.config.ExchangeType, true, false, false, false, nil); err != nil {
				return fail("failed to declare exchange '%s': %w", c.config.ExchangeName, err)
			}
		}
		if err := ch.QueueBind(c.queueName, c.config.RoutingKey, c.config.ExchangeName, false, nil); err != nil {
			return fail("failed to bind queue '%s' to exchange '%s': %w", c.queueName, c.config.ExchangeName, err)
		}
	}

	log.Info().
		Str("queue", c.queueName).
		Str("exchange", c.config.ExchangeName).
		Str("routing_key", c.config.RoutingKey).
		Msg("Consumer: setup complete")
	return nil
}

// StartConsuming блокируется, пока не отменен ctx или брокер не закрыл соединение.
// Отмена ctx - штатное завершение, возвращается nil.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.connection == nil || c.connection.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}

	msgs, err := c.channel.Consume(c.queueName, c.config.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumer: failed to register a consumer on queue '%s': %w", c.queueName, err)
	}
	notifyClose := c.connection.NotifyClose(make(chan *amqp.Error, 1))

	log.Info().Str("queue", c.queueName).Msg("Consumer: waiting for messages")

	sem := make(chan struct{}, c.config.Concurrency)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("queue", c.queueName).Msg("Consumer: context cancelled, stopping")
			return nil
		case amqpErr, ok := <-notifyClose:
			if !ok || amqpErr == nil {
				return nil
			}
			log.Error().Str("error", amqpErr.Error()).Msg("Consumer: connection closed by broker")
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				log.Info().Str("queue", c.queueName).Msg("Consumer: deliveries channel closed")
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return nil
			}
			c.wg.Add(1)
			go func(delivery amqp.Delivery) {
				defer func() {
					<-sem
					c.wg.Done()
				}()
				c.dispatch(ctx, delivery)
			}(d)
			if c.config.Concurrency == 1 {
				// сохраняем порядок сообщений
				sem <- struct{}{}
				<-sem
			}
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	ack, requeue, err := c.handler(ctx, d)
	switch {
	case err != nil:
		log.Warn().Err(err).Uint64("tag", d.DeliveryTag).Bool("requeue", requeue).Msg("Consumer: handler failed")
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error().Err(nackErr).Uint64("tag", d.DeliveryTag).Msg("Consumer: nack failed")
		}
	case ack:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Uint64("tag", d.DeliveryTag).Msg("Consumer: ack failed")
		}
	default:
		log.Debug().Uint64("tag", d.DeliveryTag).Msg("Consumer: message rejected by handler")
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Uint64("tag", d.DeliveryTag).Msg("Consumer: nack failed")
		}
	}
}

// Close дожидается обработчиков и закрывает канал и соединение.
func (c *Consumer) Close() error {
	c.wg.Wait()
	err := rabbitmq_common.CloseAll(c.channel, c.connection)
	c.channel, c.connection = nil, nil
	if err != nil {
		log.Warn().Err(err).Msg("Consumer: error while closing")
		return err
	}
	log.Info().Msg("Consumer: closed")
	return nil
}
