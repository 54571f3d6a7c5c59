package kafka

import (
	"Agora/internal/api/config"
	"Agora/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	augmentConsumer sarama.ConsumerGroup
	augmentHandler  sarama.ConsumerGroupHandler
	topic           string
}

func NewConsumerManager(cfg *config.Config, augment service.AugmentService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	augmentConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaAugment.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		augmentConsumer: augmentConsumer,
		augmentHandler:  NewAugmentHandler(augment),
		topic:           cfg.KafkaAugment.Topic,
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		log.Info("AI augment consumer started", "topic", m.topic)
		for {
			if err := m.augmentConsumer.Consume(ctx, []string{m.topic}, m.augmentHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for err := range m.augmentConsumer.Errors() {
			log.Error("augment consumer group error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.augmentConsumer.Close(); err != nil {
		log.Error("Failed to close augment consumer", "err", err)
		return err
	}
	return nil
}
