package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"
	"coupon-service/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует события жизненного цикла купонов в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создаёт синхронного продюсера Kafka
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishCouponCreated публикует событие создания купона
func (p *Producer) PublishCouponCreated(coupon *models.CouponResponse) error {
	if coupon == nil {
		return errors.New("coupon is nil")
	}

	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeCouponCreated,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"couponId":       coupon.ID.String(),
			"code":           coupon.Code,
			"discountValue":  coupon.DiscountValue.String(),
			"expirationDate": coupon.ExpirationDate.Format(time.RFC3339),
			"published":      coupon.Published,
		},
	}

	return p.publishEvent(p.topics.Coupons, coupon.ID.String(), event)
}

// PublishCouponDeleted публикует событие мягкого удаления купона
func (p *Producer) PublishCouponDeleted(couponID uuid.UUID) error {
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeCouponDeleted,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"couponId": couponID.String(),
			"status":   string(models.CouponStatusDeleted),
		},
	}

	return p.publishEvent(p.topics.Coupons, couponID.String(), event)
}

// publishEvent отправляет событие с ключом сообщения; события одного купона
// попадают в одну партицию и читаются по порядку.
func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	if topic == "" {
		return errors.New("kafka topic is not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}
