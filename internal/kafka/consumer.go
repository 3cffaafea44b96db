package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"partner-tracker/internal/config"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/metrics"
	"partner-tracker/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// InboundEvent представляет входящее событие с еще не разобранными данными
type InboundEvent struct {
	ID        uuid.UUID        `json:"id"`
	Type      models.EventType `json:"type"`
	DriverID  string           `json:"driver_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Data      json.RawMessage  `json:"data"`
}

// EventHandler представляет обработчик событий
type EventHandler func(ctx context.Context, event *InboundEvent) error

// Consumer представляет Kafka consumer входящих сообщений партнера
type Consumer struct {
	consumer sarama.ConsumerGroup
	log      *logger.Logger
	handlers map[models.EventType]EventHandler
	topics   []string
	driverID string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewConsumer создает новый Kafka consumer. События других партнеров
// отбрасываются, если driverID не пуст.
func NewConsumer(cfg *config.KafkaConfig, driverID string, log *logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest // старые push и фиксы неактуальны
	config.Consumer.Group.Session.Timeout = 10 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	log.Info("Kafka consumer created successfully")

	return newConsumer(group, inboundTopics(cfg.Topics), driverID, log), nil
}

// inboundTopics топики, которые читает партнер; исходящие сюда не входят
func inboundTopics(topics config.Topics) []string {
	return []string{topics.Push, topics.Locations}
}

func newConsumer(group sarama.ConsumerGroup, topics []string, driverID string, log *logger.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		consumer: group,
		log:      log,
		handlers: make(map[models.EventType]EventHandler),
		topics:   topics,
		driverID: driverID,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterHandler регистрирует обработчик для определенного типа события
func (c *Consumer) RegisterHandler(eventType models.EventType, handler EventHandler) {
	c.handlers[eventType] = handler
	c.log.WithField("event_type", eventType).Info("Event handler registered")
}

// Start запускает consumer
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				if err := c.consumer.Consume(c.ctx, c.topics, c); err != nil {
					c.log.WithError(err).Error("Error consuming messages")
				}
			}
		}
	}()

	c.log.Info("Kafka consumer started")
	return nil
}

// Stop останавливает consumer
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.consumer.Close()
}

// Setup реализует интерфейс sarama.ConsumerGroupHandler
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup реализует интерфейс sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim реализует интерфейс sarama.ConsumerGroupHandler
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(session.Context(), message); err != nil {
				c.log.WithError(err).
					WithField("topic", message.Topic).
					WithField("partition", message.Partition).
					WithField("offset", message.Offset).
					Error("Failed to process message")
			} else {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

// processMessage обрабатывает полученное сообщение
func (c *Consumer) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event InboundEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if c.driverID != "" && event.DriverID != "" && event.DriverID != c.driverID {
		return nil
	}

	c.log.WithField("event_type", event.Type).
		WithField("event_id", event.ID).
		WithField("topic", message.Topic).
		Debug("Processing event")

	handler, exists := c.handlers[event.Type]
	if !exists {
		c.log.WithField("event_type", event.Type).Warn("No handler registered for event type")
		return nil // Не возвращаем ошибку, просто пропускаем событие
	}

	if err := handler(ctx, &event); err != nil {
		return fmt.Errorf("handler failed for event type %s: %w", event.Type, err)
	}

	c.log.WithField("event_type", event.Type).
		WithField("event_id", event.ID).
		Debug("Event processed successfully")

	return nil
}

// Notifier принимает готовое уведомление
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Renderer строит уведомление из push сообщения
type Renderer interface {
	Render(msg models.PushMessage, role models.Role) models.Notification
}

// FixSink принимает фиксы и состояние служб геолокации
type FixSink interface {
	Publish(pos models.Position)
	SetAvailability(update models.AvailabilityUpdate)
}

// PushHandler показывает push сообщение партнеру
func PushHandler(renderer Renderer, role models.Role, notifier Notifier) EventHandler {
	return func(ctx context.Context, event *InboundEvent) error {
		var msg models.PushMessage
		if err := json.Unmarshal(event.Data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal push message: %w", err)
		}
		metrics.PushMessages.Inc()
		return notifier.Notify(ctx, renderer.Render(msg, role))
	}
}

// FixHandler передает фикс устройства в источник геолокации
func FixHandler(sink FixSink) EventHandler {
	return func(ctx context.Context, event *InboundEvent) error {
		var pos models.Position
		if err := json.Unmarshal(event.Data, &pos); err != nil {
			return fmt.Errorf("failed to unmarshal location fix: %w", err)
		}
		if pos.Time.IsZero() {
			pos.Time = event.Timestamp
		}
		sink.Publish(pos)
		return nil
	}
}

// AvailabilityHandler передает состояние служб геолокации устройства
func AvailabilityHandler(sink FixSink) EventHandler {
	return func(ctx context.Context, event *InboundEvent) error {
		var update models.AvailabilityUpdate
		if err := json.Unmarshal(event.Data, &update); err != nil {
			return fmt.Errorf("failed to unmarshal availability update: %w", err)
		}
		sink.SetAvailability(update)
		return nil
	}
}
