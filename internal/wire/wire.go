package wire

import (
	"Agora/internal/api"
	"Agora/internal/api/config"
	"Agora/internal/api/handler"
	"Agora/internal/job"
	"Agora/internal/pkg/cron"
	"Agora/internal/pkg/kafka"
	"Agora/internal/pkg/llm"
	"Agora/internal/pkg/metrics"
	"Agora/internal/pkg/minio"
	"Agora/internal/pkg/security"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"Agora/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager

	// 以下按 ai.dispatcher 二选一
	Pool          *job.AugmentPool
	Producer      *kafka.AugmentProducer
	KafkaManager  *kafka.ConsumerManager
	SystemAccount uint64
}

// Shutdown 停止后台投递组件
func (s *ApplicationContainer) Shutdown(ctx context.Context) {
	if s.Pool != nil {
		if err := s.Pool.Stop(ctx); err != nil {
			log.Warn("augment pool did not drain before shutdown", "err", err)
		}
	}
	if s.Producer != nil {
		if err := s.Producer.Close(); err != nil {
			log.Error("failed to close augment producer", "err", err)
		}
	}
}

func BuildApplication(ctx context.Context, db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config,
	generator llm.Generator) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepo(mongoDB)
	articleRepo := repository.NewArticleRepo(mongoDB)
	commentRepo := repository.NewCommentRepo(mongoDB)
	savedRepo := repository.NewSavedItemRepo(mongoDB)

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	systemID, err := service.ResolveSystemAccount(ctx, userRepo, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ai system account: %w", err)
	}

	attachmentService := service.NewAttachmentService(store, postRepo, articleRepo, commentRepo, cfg.Storage)
	engagementService := service.NewEngagementService(postRepo, articleRepo, savedRepo)
	commentService := service.NewCommentService(commentRepo, postRepo, articleRepo, userRepo, attachmentService)
	augmentService := service.NewAugmentService(postRepo, commentRepo, commentService, generator,
		llm.NewPromptBuilder(cfg.LLM.BasePromptPath), recorder, cfg.AI, systemID)

	app := &ApplicationContainer{DB: db, SystemAccount: systemID}

	var dispatcher service.AugmentDispatcher
	switch cfg.AI.Dispatcher {
	case "kafka":
		producer, err := kafka.NewAugmentProducer(cfg, recorder)
		if err != nil {
			return nil, err
		}
		consumers, err := kafka.NewConsumerManager(cfg, augmentService)
		if err != nil {
			_ = producer.Close()
			return nil, err
		}
		app.Producer, app.KafkaManager = producer, consumers
		dispatcher = producer
	default:
		pool := job.NewAugmentPool(augmentService, recorder, cfg.AI.Workers, cfg.AI.QueueSize)
		pool.Start()
		app.Pool = pool
		dispatcher = pool
	}

	postService := service.NewPostService(postRepo, commentRepo, savedRepo, userRepo, attachmentService,
		augmentService, dispatcher, cfg.AI)
	articleService := service.NewArticleService(articleRepo, commentRepo, savedRepo, userRepo, attachmentService)

	orphanJob := job.NewOrphanCleanupJob(store, postRepo, articleRepo, commentRepo,
		time.Duration(cfg.Cron.OrphanGraceHours)*time.Hour)
	app.CronMgr = cron.NewCronManager(cfg.Cron.OrphanSweepSpec, orphanJob)

	handlers := &api.HandlersGroup{
		PostHandler:      handler.NewPostHandler(postService, engagementService),
		ArticleHandler:   handler.NewArticleHandler(articleService, engagementService),
		CommentHandler:   handler.NewCommentHandler(commentService),
		SavedItemHandler: handler.NewSavedItemHandler(engagementService),
		AIHandler:        handler.NewAIHandler(postService),
		DownloadHandler:  handler.NewDownloadHandler(attachmentService),
		Tokens:           security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer),
		Registry:         registry,
		MetricsHandler:   metrics.Handler(registry),
		MetricsPath:      cfg.Observability.MetricsPath,
	}
	app.Router = api.SetupRouter(handlers)

	return app, nil
}

// newBlobStore 按 storage.driver 选择附件后端
func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "minio":
		client, err := minio.NewClient(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return storage.NewMinioStore(client, cfg.MinIO.Bucket), nil
	default:
		store, err := storage.NewLocalStore(cfg.Storage.LocalRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
