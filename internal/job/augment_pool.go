package job

import (
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/metrics"
	"Agora/internal/service"
	"context"
	log "log/slog"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type augmentTask struct {
	postID  primitive.ObjectID
	traceID string
}

// AugmentPool 进程内 AI 回答工作池，固定 worker 数与有界队列
type AugmentPool struct {
	svc      service.AugmentService
	recorder metrics.AugmentRecorder
	queue    chan augmentTask
	workers  int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

func NewAugmentPool(svc service.AugmentService, recorder metrics.AugmentRecorder, workers, queueSize int) *AugmentPool {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AugmentPool{
		svc:      svc,
		recorder: recorder,
		queue:    make(chan augmentTask, queueSize),
		workers:  workers,
	}
}

// Start 启动 worker，只生效一次
func (p *AugmentPool) Start() {
	p.once.Do(func() {
		log.Info("ai augment pool starting", "workers", p.workers, "queue_size", cap(p.queue))
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work(i)
		}
	})
}

// Dispatch 非阻塞投递，队列满或已停止时丢弃并返回 false
func (p *AugmentPool) Dispatch(ctx context.Context, postID primitive.ObjectID) bool {
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		traceID = "ai-" + uuid.NewString()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		log.WarnContext(ctx, "ai augment pool stopped, task dropped", "post_id", postID.Hex())
		p.recorder.RecordDropped()
		return false
	}

	select {
	case p.queue <- augmentTask{postID: postID, traceID: traceID}:
		p.recorder.RecordEnqueued()
		p.recorder.SetQueueDepth(len(p.queue))
		return true
	default:
		log.WarnContext(ctx, "ai augment queue full, task dropped", "post_id", postID.Hex())
		p.recorder.RecordDropped()
		return false
	}
}

// Stop 停止接收新任务，等待队列中的任务处理完或 ctx 结束
func (p *AugmentPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("ai augment pool stopped")
		return nil
	case <-ctx.Done():
		log.Warn("ai augment pool stop timeout", "pending", len(p.queue))
		return ctx.Err()
	}
}

func (p *AugmentPool) work(id int) {
	defer p.wg.Done()
	for task := range p.queue {
		p.recorder.SetQueueDepth(len(p.queue))
		p.run(id, task)
	}
}

func (p *AugmentPool) run(id int, task augmentTask) {
	ctx := logger.WithTrace(context.Background(), task.traceID)
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "ai augment worker panic", "worker", id, "post_id", task.postID.Hex(), "panic", r)
		}
	}()
	p.svc.GenerateForPost(ctx, task.postID)
}
