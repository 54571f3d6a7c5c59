package kafka

import (
	"Agora/internal/pkg/logger"
	"Agora/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

// AugmentHandler 消费 AI 回答任务
type AugmentHandler struct {
	svc service.AugmentService
}

func NewAugmentHandler(svc service.AugmentService) *AugmentHandler {
	return &AugmentHandler{svc: svc}
}

func (s *AugmentHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("ai augment consumer setup")
	return nil
}

func (s *AugmentHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("ai augment consumer cleanup")
	return nil
}

func (s *AugmentHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("ai augment consume claim", "topic", claim.Topic(), "partition", claim.Partition())
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("ai augment process batch error", "err", err)
		return err
	}
	return nil
}

// logic 生成结果均已在服务内记录，这里只处理消息本身
func (s *AugmentHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	postID, traceID, err := decodeAugmentMessage(msg.Value)
	if err != nil {
		log.WarnContext(ctx, "skip malformed augment message", "offset", msg.Offset, "err", err)
		return nil
	}
	if traceID != "" {
		ctx = logger.WithTrace(ctx, traceID)
	}

	res := s.svc.GenerateForPost(ctx, postID)
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	log.DebugContext(ctx, "augment message consumed", "post_id", postID.Hex(), "outcome", res.Outcome)
	return nil
}
