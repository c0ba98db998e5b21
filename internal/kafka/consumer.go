package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"
	"coupon-service/internal/models"

	"github.com/IBM/sarama"
)

const consumeRetryBackoff = time.Second

// EventHandler обрабатывает событие конкретного типа
type EventHandler func(ctx context.Context, event *models.Event) error

// Consumer читает события купонов из Kafka и раздаёт их обработчикам
type Consumer struct {
	consumer sarama.ConsumerGroup
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	topics   []string
	ctx      context.Context
	cancel   context.CancelFunc

	mu sync.RWMutex
	wg sync.WaitGroup
}

// NewConsumer создаёт consumer group для топика купонов
func NewConsumer(cfg *config.KafkaConfig, log *logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"brokers":  cfg.Brokers,
		"group_id": cfg.GroupID,
	}).Info("Kafka consumer created")

	return newConsumer(group, log, cfg.Topics.Coupons), nil
}

func newConsumer(group sarama.ConsumerGroup, log *logger.Logger, topics ...string) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: group,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		topics:   topics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler регистрирует обработчик для типа события
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[models.EventType]EventHandler)
	}
	c.handlers[eventType] = handler
}

// Handler возвращает обработчик для типа события
func (c *Consumer) Handler(eventType models.EventType) EventHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlers[eventType]
}

// HandlerCount возвращает количество зарегистрированных обработчиков
func (c *Consumer) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Start запускает цикл чтения в отдельной горутине
func (c *Consumer) Start() error {
	if c.consumer == nil {
		return errors.New("consumer group is not initialized")
	}
	if c.ctx == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consumer.Consume(c.ctx, c.topics, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || c.ctx.Err() != nil {
					return
				}
				c.logger().WithError(err).Error("Kafka consume failed")
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(consumeRetryBackoff):
				}
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	c.logger().WithField("topics", c.topics).Info("Kafka consumer started")
	return nil
}

// Stop останавливает чтение и закрывает группу
func (c *Consumer) Stop() error {
	if c == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if c.consumer == nil {
		return nil
	}
	if err := c.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.logger().Info("Kafka consumer stopped")
	return nil
}

// Setup вызывается sarama перед началом сессии
func (c *Consumer) Setup(session sarama.ConsumerGroupSession) error {
	if session != nil {
		c.logger().WithField("member_id", session.MemberID()).Debug("Kafka session started")
	}
	return nil
}

// Cleanup вызывается sarama по завершении сессии
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim читает сообщения партиции. Ошибка обработки логируется, а
// смещение всё равно фиксируется, чтобы битое сообщение не блокировало поток.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.processMessage(msg); err != nil {
				c.logger().WithError(err).WithFields(map[string]interface{}{
					"topic":     msg.Topic,
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Error("Failed to process Kafka message")
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *Consumer) processMessage(msg *sarama.ConsumerMessage) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	handler := c.Handler(event.Type)
	if handler == nil {
		c.logger().WithField("event_type", event.Type).Debug("No handler registered for event")
		return nil
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := handler(ctx, &event); err != nil {
		return fmt.Errorf("handler for %s failed: %w", event.Type, err)
	}
	return nil
}

func (c *Consumer) logger() *logger.Logger {
	if c.log == nil {
		return logger.New(&config.LoggerConfig{Level: "error"})
	}
	return c.log
}
