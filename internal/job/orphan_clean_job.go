package job

import (
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/storage"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// AttachmentIndex 判断文件名是否仍被某条记录引用
type AttachmentIndex interface {
	HasAttachment(ctx context.Context, filename string) (bool, error)
}

// OrphanCleanupJob 清理超过宽限期且未被任何内容引用的附件文件
type OrphanCleanupJob struct {
	store   storage.BlobStore
	indexes map[storage.Category]AttachmentIndex
	grace   time.Duration
	now     func() time.Time
}

func NewOrphanCleanupJob(store storage.BlobStore, posts, articles, comments AttachmentIndex, grace time.Duration) *OrphanCleanupJob {
	return &OrphanCleanupJob{
		store: store,
		indexes: map[storage.Category]AttachmentIndex{
			storage.CategoryPost:    posts,
			storage.CategoryArticle: articles,
			storage.CategoryComment: comments,
		},
		grace: grace,
		now:   time.Now,
	}
}

func (s *OrphanCleanupJob) Run() {
	ctx := logger.WithTrace(context.Background(), "job-orphan-"+uuid.NewString())
	log.InfoContext(ctx, "start orphan attachment cleanup job")

	cleaned, err := s.Sweep(ctx)
	if err != nil {
		log.ErrorContext(ctx, "orphan attachment cleanup job failed", "err", err)
		return
	}
	if cleaned > 0 {
		log.InfoContext(ctx, "orphan attachment cleanup job finished", "cleaned_count", cleaned)
	}
}

// Sweep 遍历附件目录，返回删除的文件数
func (s *OrphanCleanupJob) Sweep(ctx context.Context) (int, error) {
	deadline := s.now().Add(-s.grace)
	count := 0

	for _, c := range storage.AttachmentCategories {
		index := s.indexes[c]
		if index == nil {
			continue
		}
		blobs, err := s.store.List(ctx, c)
		if err != nil {
			return count, err
		}

		for _, b := range blobs {
			if b.ModTime.After(deadline) {
				continue
			}
			used, err := index.HasAttachment(ctx, b.Name)
			if err != nil {
				log.ErrorContext(ctx, "failed to check attachment reference", "category", c, "name", b.Name, "err", err)
				continue
			}
			if used {
				continue
			}
			if err = s.store.Delete(ctx, c, b.Name); err != nil {
				log.ErrorContext(ctx, "failed to delete orphan attachment", "category", c, "name", b.Name, "err", err)
				continue
			}
			count++
			log.InfoContext(ctx, "cleanup orphan attachment", "category", c, "name", b.Name, "size", b.Size)
		}
	}
	return count, nil
}
