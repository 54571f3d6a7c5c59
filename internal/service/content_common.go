package service

import (
	"Agora/internal/model"
	"Agora/internal/pkg/redis"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const viewDedupWindow = time.Hour

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > model.PostTitleMaxLen {
		return "", ErrTitleInvalid
	}
	return title, nil
}

func normalizeBody(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrContentRequired
	}
	return content, nil
}

// normalizeTags 去空去重，最多 5 个
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > model.MaxTags {
		return nil, ErrTooManyTags
	}
	return out, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrParamInvalid
	}
	return oid, nil
}

// contentCleaner 删除内容实体时的级联清理
type contentCleaner struct {
	commentRepo repository.CommentRepo
	savedRepo   repository.SavedItemRepo
	attachments AttachmentService
}

// purge 先清理评论文件与评论，再移除收藏引用，最后删除实体及其文件
func (c contentCleaner) purge(ctx context.Context, ref model.ContentRef, category storage.Category,
	atts []model.Attachment, deleteEntity func(context.Context) (bool, error)) error {
	comments, err := c.commentRepo.ListByParent(ctx, ref)
	if err != nil {
		return err
	}
	for _, cm := range comments {
		c.attachments.DeleteFiles(ctx, storage.CategoryComment, cm.Attachments)
	}
	if _, err = c.commentRepo.DeleteByParent(ctx, ref); err != nil {
		return err
	}
	invalidateCommentTotal(ctx, ref)

	if err = c.savedRepo.RemoveEverywhere(ctx, ref.Kind, ref.ID); err != nil {
		return err
	}

	deleted, err := deleteEntity(ctx)
	if err != nil {
		return err
	}
	if !deleted {
		return contentNotFound(ref.Kind)
	}
	c.attachments.DeleteFiles(ctx, category, atts)
	return nil
}

// countView 登录用户同一内容一小时内只计一次
func countView(ctx context.Context, ops repository.ContentOps, keyPrefix string, id primitive.ObjectID, viewerID uint64) {
	if viewerID != 0 {
		key := keyPrefix + id.Hex() + ":" + strconv.FormatUint(viewerID, 10)
		first, err := redis.SetIfAbsent(ctx, key, 1, viewDedupWindow)
		if err != nil {
			log.WarnContext(ctx, "failed to dedupe view", "key", key, "err", err)
		} else if !first {
			return
		}
	}
	if err := ops.IncViewCount(ctx, id); err != nil {
		log.WarnContext(ctx, "failed to increase view count", "id", id.Hex(), "err", err)
	}
}
