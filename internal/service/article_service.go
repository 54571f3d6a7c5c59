package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"context"
	"errors"
	"strings"

	"github.com/jinzhu/copier"
)

type ArticleService interface {
	CreateArticle(ctx context.Context, userID uint64, req *dto.ArticleCreateDTO, files []*UploadFile) (*dto.ArticleDTO, error)
	GetArticle(ctx context.Context, id string, viewerID uint64) (*dto.ArticleDTO, error)
	UpdateArticle(ctx context.Context, id string, req *dto.ArticleUpdateDTO, viewerID uint64) (*dto.ArticleDTO, error)
	DeleteArticle(ctx context.Context, id string) error
	AddAttachments(ctx context.Context, id string, files []*UploadFile) ([]*dto.AttachmentDTO, error)
	RemoveAttachment(ctx context.Context, id string, filename string) error
	GetArticleOwner(ctx context.Context, id string) (uint64, error)
}

type articleServiceImpl struct {
	articleRepo repository.ArticleRepo
	userRepo    repository.UserRepo
	attachments AttachmentService
	cleaner     contentCleaner
}

func NewArticleService(articleRepo repository.ArticleRepo, commentRepo repository.CommentRepo, savedRepo repository.SavedItemRepo,
	userRepo repository.UserRepo, attachments AttachmentService) ArticleService {
	return &articleServiceImpl{
		articleRepo: articleRepo,
		userRepo:    userRepo,
		attachments: attachments,
		cleaner:     contentCleaner{commentRepo: commentRepo, savedRepo: savedRepo, attachments: attachments},
	}
}

func (s *articleServiceImpl) CreateArticle(ctx context.Context, userID uint64, req *dto.ArticleCreateDTO, files []*UploadFile) (*dto.ArticleDTO, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeBody(req.Content)
	if err != nil {
		return nil, err
	}
	category, err := normalizeArticleCategory(req.Category)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	atts, err := s.attachments.Stage(ctx, storage.CategoryArticle, 0, files)
	if err != nil {
		return nil, err
	}
	article := &model.Article{
		Title:       title,
		Content:     content,
		AuthorID:    userID,
		Category:    category,
		Tags:        tags,
		Attachments: atts,
	}
	if err = s.articleRepo.Create(ctx, article); err != nil {
		s.attachments.Discard(ctx, storage.CategoryArticle, atts)
		return nil, err
	}
	return s.toDTO(ctx, article, userID), nil
}

func (s *articleServiceImpl) GetArticle(ctx context.Context, id string, viewerID uint64) (*dto.ArticleDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	countView(ctx, s.articleRepo, consts.ArticleViewKey, oid, viewerID)
	article.ViewCount++
	return s.toDTO(ctx, article, viewerID), nil
}

func (s *articleServiceImpl) UpdateArticle(ctx context.Context, id string, req *dto.ArticleUpdateDTO, viewerID uint64) (*dto.ArticleDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	patch := &repository.ArticlePatch{}
	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if req.Content != nil {
		content, err := normalizeBody(*req.Content)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}
	if req.Category != nil {
		category, err := normalizeArticleCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		patch.Category = &category
	}
	if req.Tags != nil {
		if patch.Tags, err = normalizeTags(req.Tags); err != nil {
			return nil, err
		}
	}

	if err = s.articleRepo.Update(ctx, oid, patch); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	article, err := s.articleRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	return s.toDTO(ctx, article, viewerID), nil
}

func (s *articleServiceImpl) DeleteArticle(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	article, err := s.articleRepo.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if article == nil {
		return ErrArticleNotFound
	}
	ref := model.ContentRef{Kind: model.KindArticle, ID: oid}
	return s.cleaner.purge(ctx, ref, storage.CategoryArticle, article.Attachments, func(ctx context.Context) (bool, error) {
		return s.articleRepo.Delete(ctx, oid)
	})
}

func (s *articleServiceImpl) AddAttachments(ctx context.Context, id string, files []*UploadFile) ([]*dto.AttachmentDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	atts, err := s.attachments.Add(ctx, AttachmentOwner{Category: storage.CategoryArticle, ID: oid}, files)
	if err != nil {
		return nil, err
	}
	return toAttachmentDTOs(atts), nil
}

func (s *articleServiceImpl) RemoveAttachment(ctx context.Context, id string, filename string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	return s.attachments.Remove(ctx, AttachmentOwner{Category: storage.CategoryArticle, ID: oid}, filename)
}

func (s *articleServiceImpl) GetArticleOwner(ctx context.Context, id string) (uint64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}
	owner, err := s.articleRepo.GetOwner(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return 0, ErrArticleNotFound
		}
		return 0, err
	}
	return owner, nil
}

func (s *articleServiceImpl) toDTO(ctx context.Context, article *model.Article, viewerID uint64) *dto.ArticleDTO {
	out := &dto.ArticleDTO{}
	_ = copier.Copy(out, article)
	out.ID = article.ID.Hex()
	out.Author = loadAuthors(ctx, s.userRepo, []uint64{article.AuthorID})[article.AuthorID]
	out.Attachments = toAttachmentDTOs(article.Attachments)
	out.LikesCount = len(article.Likes)
	out.IsLiked = containsUser(article.Likes, viewerID)
	out.CommentsCount = len(article.Comments)
	out.CreatedAt = formatTime(article.CreatedAt)
	out.UpdatedAt = formatTime(article.UpdatedAt)
	return out
}

func normalizeArticleCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.DefaultArticleCategory, nil
	}
	if !model.IsArticleCategory(category) {
		return "", ErrCategoryInvalid
	}
	return category, nil
}
