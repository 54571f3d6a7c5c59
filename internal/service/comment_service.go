package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/redis"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const commentTotalTTL = 10 * time.Minute

type CommentService interface {
	CreateComment(ctx context.Context, userID uint64, req *dto.CommentCreateDTO, files []*UploadFile) (*dto.CommentDTO, error)
	CreateReply(ctx context.Context, userID uint64, parentID string, content string, files []*UploadFile) (*dto.CommentDTO, error)
	CreateSystemComment(ctx context.Context, ref model.ContentRef, authorID uint64, content string) (*model.Comment, error)
	GetComment(ctx context.Context, id string, viewerID uint64) (*dto.CommentDTO, error)
	UpdateComment(ctx context.Context, id string, content string, files []*UploadFile) (*dto.CommentDTO, error)
	DeleteComment(ctx context.Context, id string) error
	ListTopLevelComments(ctx context.Context, query *dto.CommentListQuery, viewerID uint64) (*dto.CommentPageDTO, error)
	ToggleCommentLike(ctx context.Context, id string, userID uint64) (bool, error)
	RemoveCommentAttachment(ctx context.Context, id string, filename string) error
	GetCommentOwner(ctx context.Context, id string) (uint64, error)
}

type commentServiceImpl struct {
	commentRepo repository.CommentRepo
	contents    contentResolver
	userRepo    repository.UserRepo
	attachments AttachmentService
}

func NewCommentService(commentRepo repository.CommentRepo, postRepo repository.PostRepo, articleRepo repository.ArticleRepo,
	userRepo repository.UserRepo, attachments AttachmentService) CommentService {
	return &commentServiceImpl{
		commentRepo: commentRepo,
		contents:    contentResolver{posts: postRepo, articles: articleRepo},
		userRepo:    userRepo,
		attachments: attachments,
	}
}

// CreateComment 创建评论，带 parentId 时按回复处理
func (s *commentServiceImpl) CreateComment(ctx context.Context, userID uint64, req *dto.CommentCreateDTO, files []*UploadFile) (*dto.CommentDTO, error) {
	if req.ParentID != "" {
		return s.CreateReply(ctx, userID, req.ParentID, req.Content, files)
	}

	content, err := normalizeCommentContent(req.Content)
	if err != nil {
		return nil, err
	}
	ref, err := parseContentRef(req.PostID, req.ArticleID)
	if err != nil {
		return nil, err
	}

	comment, err := s.create(ctx, ref, nil, userID, content, files, false)
	if err != nil {
		return nil, err
	}
	return s.single(ctx, comment, userID), nil
}

// CreateReply 回复继承父评论的内容引用，回复的回复挂到一级评论下
func (s *commentServiceImpl) CreateReply(ctx context.Context, userID uint64, parentID string, content string, files []*UploadFile) (*dto.CommentDTO, error) {
	content, err := normalizeCommentContent(content)
	if err != nil {
		return nil, err
	}
	pid, err := primitive.ObjectIDFromHex(parentID)
	if err != nil {
		return nil, ErrParamInvalid
	}

	parent, err := s.commentRepo.FindByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.IsDeleted() {
		return nil, ErrCommentNotFound
	}
	topID := parent.ID
	if parent.IsReply() {
		topID = *parent.ParentCommentID
	}

	comment, err := s.create(ctx, parent.Parent, &topID, userID, content, files, false)
	if err != nil {
		return nil, err
	}
	return s.single(ctx, comment, userID), nil
}

// CreateSystemComment AI 回答以系统账号发表一级评论
func (s *commentServiceImpl) CreateSystemComment(ctx context.Context, ref model.ContentRef, authorID uint64, content string) (*model.Comment, error) {
	if err := ref.Validate(); err != nil {
		return nil, ErrParamInvalid
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.CommentMaxLen {
		content = string([]rune(content)[:model.CommentMaxLen])
	}
	return s.create(ctx, ref, nil, authorID, content, nil, true)
}

func (s *commentServiceImpl) create(ctx context.Context, ref model.ContentRef, parentCommentID *primitive.ObjectID,
	authorID uint64, content string, files []*UploadFile, isAI bool) (*model.Comment, error) {
	ops := s.contents.ops(ref.Kind)
	exists, err := ops.Exists(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrParentNotFound
	}

	atts, err := s.attachments.Stage(ctx, storage.CategoryComment, 0, files)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Content:         content,
		AuthorID:        authorID,
		Parent:          ref,
		ParentCommentID: parentCommentID,
		Attachments:     atts,
		State:           model.CommentActive,
		IsAIGenerated:   isAI,
	}
	if err = s.commentRepo.Create(ctx, comment); err != nil {
		s.attachments.Discard(ctx, storage.CategoryComment, atts)
		return nil, err
	}

	if err = ops.PushComment(ctx, ref.ID, comment.ID); err != nil {
		// 内容已被删除或写入失败，撤销评论与文件
		if delErr := s.commentRepo.Delete(ctx, comment.ID); delErr != nil {
			log.ErrorContext(ctx, "failed to roll back comment", "comment_id", comment.ID.Hex(), "err", delErr)
		}
		s.attachments.Discard(ctx, storage.CategoryComment, atts)
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	if parentCommentID == nil {
		invalidateCommentTotal(ctx, ref)
	}
	return comment, nil
}

func (s *commentServiceImpl) GetComment(ctx context.Context, id string, viewerID uint64) (*dto.CommentDTO, error) {
	comment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var replies []*model.Comment
	if !comment.IsReply() {
		replies, err = s.commentRepo.ListReplies(ctx, []primitive.ObjectID{comment.ID})
		if err != nil {
			return nil, err
		}
	}

	ids := []uint64{comment.AuthorID}
	for _, r := range replies {
		ids = append(ids, r.AuthorID)
	}
	authors := loadAuthors(ctx, s.userRepo, ids)

	out := toCommentDTO(comment, authors, viewerID)
	for _, r := range replies {
		out.Replies = append(out.Replies, toCommentDTO(r, authors, viewerID))
	}
	return out, nil
}

// UpdateComment 原地修改内容并追加附件，状态不变
func (s *commentServiceImpl) UpdateComment(ctx context.Context, id string, content string, files []*UploadFile) (*dto.CommentDTO, error) {
	content, err := normalizeCommentContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted() {
		return nil, ErrCommentNotFound
	}
	// 先写文件，内容与附件在同一次更新中落库
	atts, err := s.attachments.Stage(ctx, storage.CategoryComment, len(comment.Attachments), files)
	if err != nil {
		return nil, err
	}

	err = s.commentRepo.UpdateContent(ctx, comment.ID, content, atts, s.attachments.Limit(storage.CategoryComment))
	if err != nil {
		s.attachments.Discard(ctx, storage.CategoryComment, atts)
		switch {
		case errors.Is(err, repository.ErrDocumentNotFound):
			return nil, ErrCommentNotFound
		case errors.Is(err, repository.ErrLimitReached):
			return nil, ErrAttachmentLimit
		}
		return nil, err
	}
	return s.GetComment(ctx, id, 0)
}

// DeleteComment 软删除，保留文档以便回复仍可解析父评论
func (s *commentServiceImpl) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrParamInvalid
	}

	before, err := s.commentRepo.SoftDelete(ctx, oid, model.CommentTombstone)
	if err != nil {
		return err
	}
	if before == nil {
		existing, err := s.commentRepo.FindByID(ctx, oid)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrCommentNotFound
		}
		// 已删除，补做一次移除以便重试收敛
		return s.contents.ops(existing.Parent.Kind).PullComment(ctx, existing.Parent.ID, oid)
	}

	s.attachments.DeleteFiles(ctx, storage.CategoryComment, before.Attachments)
	return s.contents.ops(before.Parent.Kind).PullComment(ctx, before.Parent.ID, oid)
}

func (s *commentServiceImpl) ListTopLevelComments(ctx context.Context, query *dto.CommentListQuery, viewerID uint64) (*dto.CommentPageDTO, error) {
	ref, err := parseContentRef(query.PostID, query.ArticleID)
	if err != nil {
		return nil, err
	}
	page, limit := normalizePage(query.Page, query.Limit)

	exists, err := s.contents.ops(ref.Kind).Exists(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, contentNotFound(ref.Kind)
	}

	total, err := s.countTopLevel(ctx, ref)
	if err != nil {
		return nil, err
	}
	list, err := s.commentRepo.ListTopLevel(ctx, ref, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, err
	}

	parentIDs := make([]primitive.ObjectID, 0, len(list))
	authorIDs := make([]uint64, 0, len(list))
	for _, c := range list {
		parentIDs = append(parentIDs, c.ID)
		authorIDs = append(authorIDs, c.AuthorID)
	}
	replies, err := s.commentRepo.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, err
	}
	for _, r := range replies {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	authors := loadAuthors(ctx, s.userRepo, authorIDs)

	byParent := make(map[primitive.ObjectID][]*dto.CommentDTO, len(list))
	for _, r := range replies {
		byParent[*r.ParentCommentID] = append(byParent[*r.ParentCommentID], toCommentDTO(r, authors, viewerID))
	}

	comments := make([]*dto.CommentDTO, 0, len(list))
	for _, c := range list {
		item := toCommentDTO(c, authors, viewerID)
		item.Replies = byParent[c.ID]
		comments = append(comments, item)
	}

	return &dto.CommentPageDTO{
		Comments: comments,
		Pagination: &dto.PaginationDTO{
			TotalPages:   int((total + int64(limit) - 1) / int64(limit)),
			CurrentPage:  page,
			TotalResults: total,
		},
	}, nil
}

func (s *commentServiceImpl) ToggleCommentLike(ctx context.Context, id string, userID uint64) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrParamInvalid
	}
	liked, err := s.commentRepo.ToggleLike(ctx, oid, userID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return false, ErrCommentNotFound
		}
		return false, err
	}
	return liked, nil
}

func (s *commentServiceImpl) RemoveCommentAttachment(ctx context.Context, id string, filename string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrParamInvalid
	}
	return s.attachments.Remove(ctx, AttachmentOwner{Category: storage.CategoryComment, ID: oid}, filename)
}

// GetCommentOwner 已删除的评论同样返回作者，删除接口据此保持幂等
func (s *commentServiceImpl) GetCommentOwner(ctx context.Context, id string) (uint64, error) {
	comment, err := s.find(ctx, id)
	if err != nil {
		return 0, err
	}
	return comment.AuthorID, nil
}

func (s *commentServiceImpl) find(ctx context.Context, id string) (*model.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrParamInvalid
	}
	comment, err := s.commentRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *commentServiceImpl) single(ctx context.Context, comment *model.Comment, viewerID uint64) *dto.CommentDTO {
	authors := loadAuthors(ctx, s.userRepo, []uint64{comment.AuthorID})
	return toCommentDTO(comment, authors, viewerID)
}

// countTopLevel 一级评论总数，优先读缓存
func (s *commentServiceImpl) countTopLevel(ctx context.Context, ref model.ContentRef) (int64, error) {
	key := consts.CommentTotalKey + ref.String()
	n, hit, err := redis.GetInt64(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "failed to read comment total cache", "key", key, "err", err)
	}
	if hit {
		return n, nil
	}

	// 计数前读取版本，计数期间有新评论时放弃写缓存
	versionKey := consts.CommentTotalVersionKey + ref.String()
	version, verErr := redis.GetVersion(ctx, versionKey)

	n, err = s.commentRepo.CountTopLevel(ctx, ref)
	if err != nil {
		return 0, err
	}
	if verErr != nil {
		log.WarnContext(ctx, "failed to read comment total version", "key", versionKey, "err", verErr)
		return n, nil
	}
	if _, err = redis.SetIfVersion(ctx, key, versionKey, version, n, commentTotalTTL); err != nil {
		log.WarnContext(ctx, "failed to write comment total cache", "key", key, "err", err)
	}
	return n, nil
}

// invalidateCommentTotal 先推进版本再删缓存，顺序不可交换
func invalidateCommentTotal(ctx context.Context, ref model.ContentRef) {
	if err := redis.BumpVersion(ctx, consts.CommentTotalVersionKey+ref.String()); err != nil {
		log.WarnContext(ctx, "failed to bump comment total version", "ref", ref.String(), "err", err)
	}
	if err := redis.DeleteKey(ctx, consts.CommentTotalKey+ref.String()); err != nil {
		log.WarnContext(ctx, "failed to invalidate comment total", "ref", ref.String(), "err", err)
	}
}

func toCommentDTO(c *model.Comment, authors map[uint64]*dto.AuthorDTO, viewerID uint64) *dto.CommentDTO {
	out := &dto.CommentDTO{
		ID:            c.ID.Hex(),
		Content:       c.Content,
		Author:        authors[c.AuthorID],
		ParentKind:    string(c.Parent.Kind),
		ParentID:      c.Parent.ID.Hex(),
		Attachments:   toAttachmentDTOs(c.Attachments),
		LikesCount:    len(c.Likes),
		IsLiked:       containsUser(c.Likes, viewerID),
		IsDeleted:     c.IsDeleted(),
		IsAIGenerated: c.IsAIGenerated,
		CreatedAt:     formatTime(c.CreatedAt),
		UpdatedAt:     formatTime(c.UpdatedAt),
	}
	if c.ParentCommentID != nil {
		out.ParentCommentID = c.ParentCommentID.Hex()
	}
	if c.IsDeleted() {
		out.Content = model.CommentTombstone
		out.Attachments = []*dto.AttachmentDTO{}
	}
	return out
}

func normalizeCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.CommentMaxLen {
		return "", ErrContentTooLong
	}
	return content, nil
}

// parseContentRef 两个 id 必须且只能提供一个
func parseContentRef(postID, articleID string) (model.ContentRef, error) {
	if postID == "" && articleID == "" {
		return model.ContentRef{}, ErrMissingParent
	}
	ref, err := model.NewContentRef(postID, articleID)
	if err != nil {
		return model.ContentRef{}, ErrParamInvalid
	}
	return ref, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = consts.DefaultPage
	}
	if limit <= 0 {
		limit = consts.DefaultCommentLimit
	}
	if limit > consts.MaxCommentLimit {
		limit = consts.MaxCommentLimit
	}
	return page, limit
}
