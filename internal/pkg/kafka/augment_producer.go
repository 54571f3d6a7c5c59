package kafka

import (
	"Agora/internal/api/config"
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/metrics"
	"context"
	log "log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AugmentProducer 通过 Kafka 投递 AI 回答任务，供多实例共享消费
// 投递先进入本地有界队列，由后台协程转交给异步生产者，调用方从不等待 broker
type AugmentProducer struct {
	producer sarama.AsyncProducer
	topic    string
	recorder metrics.AugmentRecorder

	mu     sync.RWMutex
	closed bool
	queue  chan *sarama.ProducerMessage

	forwarded chan struct{}
	drained   chan struct{}
}

func NewAugmentProducer(cfg *config.Config, recorder metrics.AugmentRecorder) (*AugmentProducer, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return newAugmentProducer(producer, cfg.KafkaAugment.Topic, cfg.AI.QueueSize, recorder), nil
}

func newAugmentProducer(producer sarama.AsyncProducer, topic string, queueSize int,
	recorder metrics.AugmentRecorder) *AugmentProducer {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &AugmentProducer{
		producer: producer,
		topic:    topic,
		recorder: recorder,
		queue:    make(chan *sarama.ProducerMessage, queueSize),

		forwarded: make(chan struct{}),
		drained:   make(chan struct{}),
	}
	go p.forward()
	go p.drain()
	return p
}

// Dispatch 队列满或已关闭时直接丢弃，发送结果由 drain 异步记录
func (s *AugmentProducer) Dispatch(ctx context.Context, postID primitive.ObjectID) bool {
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		traceID = "ai-" + uuid.NewString()
	}
	value, err := encodeAugmentMessage(postID, traceID)
	if err != nil {
		log.ErrorContext(ctx, "failed to encode augment message", "post_id", postID.Hex(), "err", err)
		s.recorder.RecordDropped()
		return false
	}
	msg := &sarama.ProducerMessage{
		Topic:    s.topic,
		Key:      sarama.StringEncoder(postID.Hex()),
		Value:    sarama.ByteEncoder(value),
		Metadata: postID.Hex(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.recorder.RecordDropped()
		return false
	}
	select {
	case s.queue <- msg:
		s.recorder.RecordEnqueued()
		s.recorder.SetQueueDepth(len(s.queue))
		return true
	default:
		log.WarnContext(ctx, "augment producer queue full, dropping", "post_id", postID.Hex())
		s.recorder.RecordDropped()
		return false
	}
}

func (s *AugmentProducer) forward() {
	defer close(s.forwarded)
	for msg := range s.queue {
		s.producer.Input() <- msg
		s.recorder.SetQueueDepth(len(s.queue))
	}
}

func (s *AugmentProducer) drain() {
	defer close(s.drained)
	successes, errs := s.producer.Successes(), s.producer.Errors()
	for successes != nil || errs != nil {
		select {
		case msg, ok := <-successes:
			if !ok {
				successes = nil
				continue
			}
			log.Debug("augment message published", "post_id", msg.Metadata, "partition", msg.Partition, "offset", msg.Offset)
		case perr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.recorder.RecordDropped()
			var postID interface{}
			if perr.Msg != nil {
				postID = perr.Msg.Metadata
			}
			log.Error("failed to publish augment message", "post_id", postID, "err", perr.Err)
		}
	}
}

// Close 先冲刷本地队列，再关闭生产者并等待回执处理完毕
func (s *AugmentProducer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	// 转发协程退出后才能关闭 Input
	<-s.forwarded
	s.producer.AsyncClose()
	<-s.drained
	return nil
}
