package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EngagementService interface {
	ToggleEntityLike(ctx context.Context, ref model.ContentRef, userID uint64) (bool, error)
	ToggleSavedItem(ctx context.Context, userID uint64, itemID, itemType string) (bool, error)
	IsItemSaved(ctx context.Context, userID uint64, itemID, itemType string) (bool, error)
	GetSavedItems(ctx context.Context, userID uint64) (*dto.SavedItemsDTO, error)
}

type engagementServiceImpl struct {
	contents  contentResolver
	savedRepo repository.SavedItemRepo
}

func NewEngagementService(postRepo repository.PostRepo, articleRepo repository.ArticleRepo, savedRepo repository.SavedItemRepo) EngagementService {
	return &engagementServiceImpl{
		contents:  contentResolver{posts: postRepo, articles: articleRepo},
		savedRepo: savedRepo,
	}
}

// ToggleEntityLike 切换帖子或文章的点赞，返回切换后是否已点赞
func (s *engagementServiceImpl) ToggleEntityLike(ctx context.Context, ref model.ContentRef, userID uint64) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, ErrParamInvalid
	}
	liked, err := s.contents.ops(ref.Kind).ToggleLike(ctx, ref.ID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return false, contentNotFound(ref.Kind)
		}
		return false, err
	}
	return liked, nil
}

// ToggleSavedItem 切换收藏，收藏时要求目标存在
func (s *engagementServiceImpl) ToggleSavedItem(ctx context.Context, userID uint64, itemID, itemType string) (bool, error) {
	kind, id, err := parseSavedItem(itemID, itemType)
	if err != nil {
		return false, err
	}

	saved, err := s.savedRepo.IsSaved(ctx, userID, kind, id)
	if err != nil {
		return false, err
	}
	// 取消收藏不要求目标仍然存在
	if !saved {
		exists, err := s.contents.ops(kind).Exists(ctx, id)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, contentNotFound(kind)
		}
	}
	return s.savedRepo.Toggle(ctx, userID, kind, id)
}

func (s *engagementServiceImpl) IsItemSaved(ctx context.Context, userID uint64, itemID, itemType string) (bool, error) {
	kind, id, err := parseSavedItem(itemID, itemType)
	if err != nil {
		return false, err
	}
	return s.savedRepo.IsSaved(ctx, userID, kind, id)
}

func (s *engagementServiceImpl) GetSavedItems(ctx context.Context, userID uint64) (*dto.SavedItemsDTO, error) {
	items, err := s.savedRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SavedItemsDTO{
		Posts:    hexIDs(items.Posts),
		Articles: hexIDs(items.Articles),
	}, nil
}

func parseSavedItem(itemID, itemType string) (model.ContentKind, primitive.ObjectID, error) {
	kind := model.ContentKind(itemType)
	if !kind.Valid() {
		return "", primitive.NilObjectID, ErrInvalidItemType
	}
	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return "", primitive.NilObjectID, ErrParamInvalid
	}
	return kind, id, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

// contentResolver 按内容类型选择对应仓库
type contentResolver struct {
	posts    repository.PostRepo
	articles repository.ArticleRepo
}

func (r contentResolver) ops(kind model.ContentKind) repository.ContentOps {
	if kind == model.KindArticle {
		return r.articles
	}
	return r.posts
}

func contentNotFound(kind model.ContentKind) error {
	if kind == model.KindArticle {
		return ErrArticleNotFound
	}
	return ErrPostNotFound
}
