package service

import (
	"Agora/internal/api/config"
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
)

type PostService interface {
	CreatePost(ctx context.Context, userID uint64, req *dto.PostCreateDTO, files []*UploadFile) (*dto.PostDTO, error)
	GetPost(ctx context.Context, id string, viewerID uint64) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, id string, req *dto.PostUpdateDTO, viewerID uint64) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, id string) error
	AddAttachments(ctx context.Context, id string, files []*UploadFile) ([]*dto.AttachmentDTO, error)
	RemoveAttachment(ctx context.Context, id string, filename string) error
	GetPostOwner(ctx context.Context, id string) (uint64, error)
	GenerateAIResponse(ctx context.Context, id string) (*dto.AugmentResultDTO, error)
	DeleteAIResponse(ctx context.Context, id string) error
}

type postServiceImpl struct {
	postRepo    repository.PostRepo
	userRepo    repository.UserRepo
	attachments AttachmentService
	augment     AugmentService
	dispatcher  AugmentDispatcher
	cleaner     contentCleaner
	cfg         config.AIConfig
}

func NewPostService(postRepo repository.PostRepo, commentRepo repository.CommentRepo, savedRepo repository.SavedItemRepo,
	userRepo repository.UserRepo, attachments AttachmentService, augment AugmentService, dispatcher AugmentDispatcher,
	cfg config.AIConfig) PostService {
	return &postServiceImpl{
		postRepo:    postRepo,
		userRepo:    userRepo,
		attachments: attachments,
		augment:     augment,
		dispatcher:  dispatcher,
		cleaner:     contentCleaner{commentRepo: commentRepo, savedRepo: savedRepo, attachments: attachments},
		cfg:         cfg,
	}
}

// CreatePost 帖子与附件同步落库，之后按配置投递 AI 回答任务
func (s *postServiceImpl) CreatePost(ctx context.Context, userID uint64, req *dto.PostCreateDTO, files []*UploadFile) (*dto.PostDTO, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeBody(req.Content)
	if err != nil {
		return nil, err
	}
	categories, err := normalizePostCategories(req.Categories)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	atts, err := s.attachments.Stage(ctx, storage.CategoryPost, 0, files)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:       title,
		Content:     content,
		AuthorID:    userID,
		Categories:  categories,
		Tags:        tags,
		Attachments: atts,
	}
	if err = s.postRepo.Create(ctx, post); err != nil {
		s.attachments.Discard(ctx, storage.CategoryPost, atts)
		return nil, err
	}

	if s.cfg.GenerateOnCreate && s.augment.Enabled() && s.dispatcher != nil {
		if !s.dispatcher.Dispatch(ctx, post.ID) {
			log.WarnContext(ctx, "ai augmentation not dispatched", "post_id", post.ID.Hex())
		}
	}
	return s.toDTO(ctx, post, userID), nil
}

// GetPost 增加浏览数，按配置在读取时补生成 AI 回答
func (s *postServiceImpl) GetPost(ctx context.Context, id string, viewerID uint64) (*dto.PostDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	countView(ctx, s.postRepo, consts.PostViewKey, oid, viewerID)
	post.ViewCount++

	if s.cfg.GenerateOnRead && !post.HasAIResponse() && s.augment.Enabled() {
		res := s.augment.GenerateForPost(ctx, oid)
		if res.AIResponse != nil && *res.AIResponse != "" {
			now := time.Now()
			post.AIResponse = res.AIResponse
			post.AIResponseCreatedAt = &now
		}
	}
	return s.toDTO(ctx, post, viewerID), nil
}

func (s *postServiceImpl) UpdatePost(ctx context.Context, id string, req *dto.PostUpdateDTO, viewerID uint64) (*dto.PostDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	patch := &repository.PostPatch{IsSolved: req.IsSolved}
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
	if req.Categories != nil {
		if patch.Categories, err = normalizePostCategories(req.Categories); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		if patch.Tags, err = normalizeTags(req.Tags); err != nil {
			return nil, err
		}
	}

	if err = s.postRepo.Update(ctx, oid, patch); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return s.toDTO(ctx, post, viewerID), nil
}

func (s *postServiceImpl) DeletePost(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	post, err := s.postRepo.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	ref := model.ContentRef{Kind: model.KindPost, ID: oid}
	return s.cleaner.purge(ctx, ref, storage.CategoryPost, post.Attachments, func(ctx context.Context) (bool, error) {
		return s.postRepo.Delete(ctx, oid)
	})
}

func (s *postServiceImpl) AddAttachments(ctx context.Context, id string, files []*UploadFile) ([]*dto.AttachmentDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	atts, err := s.attachments.Add(ctx, AttachmentOwner{Category: storage.CategoryPost, ID: oid}, files)
	if err != nil {
		return nil, err
	}
	return toAttachmentDTOs(atts), nil
}

func (s *postServiceImpl) RemoveAttachment(ctx context.Context, id string, filename string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	return s.attachments.Remove(ctx, AttachmentOwner{Category: storage.CategoryPost, ID: oid}, filename)
}

func (s *postServiceImpl) GetPostOwner(ctx context.Context, id string) (uint64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}
	owner, err := s.postRepo.GetOwner(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, err
	}
	return owner, nil
}

// GenerateAIResponse 手动触发生成，结果与自动生成共用同一互斥与幂等检查
func (s *postServiceImpl) GenerateAIResponse(ctx context.Context, id string) (*dto.AugmentResultDTO, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	res := s.augment.GenerateForPost(ctx, oid)
	// 手动触发时失败以错误返回，帖子保持原样可再次触发
	switch res.Outcome {
	case OutcomeNotFound:
		return nil, ErrPostNotFound
	case OutcomeFailed, OutcomeDisabled:
		return nil, ErrAugmentFailed
	}
	return &dto.AugmentResultDTO{
		Outcome:    res.Outcome,
		AIResponse: res.AIResponse,
		CommentID:  res.CommentID,
	}, nil
}

// DeleteAIResponse 清空字段形式的 AI 回答，评论形式的回答按普通评论删除
func (s *postServiceImpl) DeleteAIResponse(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	if err = s.postRepo.ClearAIResponse(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

func (s *postServiceImpl) toDTO(ctx context.Context, post *model.Post, viewerID uint64) *dto.PostDTO {
	out := &dto.PostDTO{}
	_ = copier.Copy(out, post)
	out.ID = post.ID.Hex()
	out.Author = loadAuthors(ctx, s.userRepo, []uint64{post.AuthorID})[post.AuthorID]
	out.Attachments = toAttachmentDTOs(post.Attachments)
	out.LikesCount = len(post.Likes)
	out.IsLiked = containsUser(post.Likes, viewerID)
	out.CommentsCount = len(post.Comments)
	out.CreatedAt = formatTime(post.CreatedAt)
	out.UpdatedAt = formatTime(post.UpdatedAt)
	out.AIResponseCreatedAt = ""
	if post.AIResponseCreatedAt != nil {
		out.AIResponseCreatedAt = formatTime(*post.AIResponseCreatedAt)
	}
	return out
}

// normalizePostCategories 分类必须在固定列表内，为空时归入默认分类
func normalizePostCategories(categories []string) ([]string, error) {
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		if !model.IsPostCategory(c) {
			return nil, ErrCategoryInvalid
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		out = append(out, model.DefaultPostCategory)
	}
	return out, nil
}
