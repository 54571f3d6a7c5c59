package service

import (
	"Agora/internal/api/config"
	"Agora/internal/model"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"context"
	"errors"
	"io"
	log "log/slog"
	"mime/multipart"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContentAttachmentLimit = 3
	CommentAttachmentLimit = 2
)

// allowedMimeTypes 附件允许的类型：图片、PDF、Office 文档、纯文本
var allowedMimeTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
}

// IsAllowedMimeType 是否为允许上传的附件类型
func IsAllowedMimeType(mimeType string) bool {
	return slices.Contains(allowedMimeTypes, mimeType)
}

// UploadFile 待保存的上传文件
type UploadFile struct {
	OriginalName string
	MimeType     string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// UploadFileFromHeader 由 multipart 文件头构造
func UploadFileFromHeader(fh *multipart.FileHeader) *UploadFile {
	return &UploadFile{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// AttachmentOwner 附件所属的帖子、文章或评论
type AttachmentOwner struct {
	Category storage.Category
	ID       primitive.ObjectID
}

type AttachmentService interface {
	Limit(c storage.Category) int
	Validate(c storage.Category, existing int, files []*UploadFile) error
	Stage(ctx context.Context, c storage.Category, existing int, files []*UploadFile) ([]model.Attachment, error)
	Discard(ctx context.Context, c storage.Category, atts []model.Attachment)
	Add(ctx context.Context, owner AttachmentOwner, files []*UploadFile) ([]model.Attachment, error)
	Remove(ctx context.Context, owner AttachmentOwner, filename string) error
	DeleteAll(ctx context.Context, owner AttachmentOwner) error
	DeleteFiles(ctx context.Context, c storage.Category, atts []model.Attachment)
	Open(ctx context.Context, c storage.Category, filename string) (*model.Attachment, io.ReadCloser, error)
}

type attachmentHolder interface {
	PushAttachments(ctx context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error
	PullAttachment(ctx context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error)
}

type attachmentServiceImpl struct {
	store       storage.BlobStore
	postRepo    repository.PostRepo
	articleRepo repository.ArticleRepo
	commentRepo repository.CommentRepo
	cfg         config.StorageConfig
	now         func() time.Time
}

func NewAttachmentService(store storage.BlobStore, postRepo repository.PostRepo, articleRepo repository.ArticleRepo,
	commentRepo repository.CommentRepo, cfg config.StorageConfig) AttachmentService {
	return &attachmentServiceImpl{
		store:       store,
		postRepo:    postRepo,
		articleRepo: articleRepo,
		commentRepo: commentRepo,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Limit 每个归属的附件数量上限
func (s *attachmentServiceImpl) Limit(c storage.Category) int {
	if c == storage.CategoryComment {
		return CommentAttachmentLimit
	}
	return ContentAttachmentLimit
}

func (s *attachmentServiceImpl) maxSize(c storage.Category) int64 {
	if c == storage.CategoryComment {
		return s.cfg.MaxCommentFileSize
	}
	return s.cfg.MaxContentFileSize
}

// Validate 写入任何文件前检查数量、类型与大小
func (s *attachmentServiceImpl) Validate(c storage.Category, existing int, files []*UploadFile) error {
	if existing+len(files) > s.Limit(c) {
		return ErrAttachmentLimit
	}
	maxSize := s.maxSize(c)
	for _, f := range files {
		if !IsAllowedMimeType(f.MimeType) {
			return ErrFileNotSupported
		}
		if maxSize > 0 && f.Size > maxSize {
			return ErrFileTooLarge
		}
	}
	return nil
}

// Stage 写入文件并返回附件信息，任一文件失败时删除已写入的文件
func (s *attachmentServiceImpl) Stage(ctx context.Context, c storage.Category, existing int, files []*UploadFile) ([]model.Attachment, error) {
	if len(files) == 0 {
		return []model.Attachment{}, nil
	}
	if err := s.Validate(c, existing, files); err != nil {
		return nil, err
	}

	atts := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		att, err := s.write(ctx, c, f)
		if err != nil {
			log.ErrorContext(ctx, "failed to save attachment", "category", c, "original", f.OriginalName, "err", err)
			s.Discard(ctx, c, atts)
			return nil, ErrStorageFailed
		}
		atts = append(atts, *att)
	}
	return atts, nil
}

func (s *attachmentServiceImpl) write(ctx context.Context, c storage.Category, f *UploadFile) (*model.Attachment, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()

	now := s.now()
	name := storage.GenerateFilename(c, f.OriginalName, now)
	p, err := s.store.Save(ctx, c, name, rc, f.Size, f.MimeType)
	if err != nil {
		return nil, err
	}
	return &model.Attachment{
		Filename:     name,
		OriginalName: f.OriginalName,
		Path:         p,
		MimeType:     f.MimeType,
		Size:         f.Size,
		UploadDate:   now,
	}, nil
}

// Discard 补偿删除已写入但未落库的文件
func (s *attachmentServiceImpl) Discard(ctx context.Context, c storage.Category, atts []model.Attachment) {
	s.DeleteFiles(ctx, c, atts)
}

func (s *attachmentServiceImpl) Add(ctx context.Context, owner AttachmentOwner, files []*UploadFile) ([]model.Attachment, error) {
	current, err := s.current(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return []model.Attachment{}, nil
	}

	atts, err := s.Stage(ctx, owner.Category, len(current), files)
	if err != nil {
		return nil, err
	}

	err = s.holder(owner.Category).PushAttachments(ctx, owner.ID, atts, s.Limit(owner.Category))
	if err != nil {
		s.Discard(ctx, owner.Category, atts)
		switch {
		case errors.Is(err, repository.ErrLimitReached):
			return nil, ErrAttachmentLimit
		case errors.Is(err, repository.ErrDocumentNotFound):
			return nil, ownerNotFound(owner.Category)
		}
		return nil, err
	}
	return atts, nil
}

func (s *attachmentServiceImpl) Remove(ctx context.Context, owner AttachmentOwner, filename string) error {
	att, err := s.holder(owner.Category).PullAttachment(ctx, owner.ID, filename)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ownerNotFound(owner.Category)
		}
		return err
	}
	if att == nil {
		return ErrAttachmentNotFound
	}
	s.DeleteFiles(ctx, owner.Category, []model.Attachment{*att})
	return nil
}

// DeleteAll 删除归属下全部附件文件，数据库记录由调用方处理
func (s *attachmentServiceImpl) DeleteAll(ctx context.Context, owner AttachmentOwner) error {
	current, err := s.current(ctx, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	s.DeleteFiles(ctx, owner.Category, current)
	return nil
}

// DeleteFiles 尽力删除文件，失败只记录日志
func (s *attachmentServiceImpl) DeleteFiles(ctx context.Context, c storage.Category, atts []model.Attachment) {
	for _, att := range atts {
		if err := s.store.Delete(ctx, c, att.Filename); err != nil {
			log.WarnContext(ctx, "failed to delete attachment file", "category", c, "filename", att.Filename, "err", err)
		}
	}
}

// Open 按文件名打开附件，仅允许访问仍被引用的文件
func (s *attachmentServiceImpl) Open(ctx context.Context, c storage.Category, filename string) (*model.Attachment, io.ReadCloser, error) {
	att, err := s.lookup(ctx, c, filename)
	if err != nil {
		return nil, nil, err
	}
	if att == nil {
		return nil, nil, ErrAttachmentNotFound
	}
	rc, err := s.store.Open(ctx, c, filename)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, nil, ErrAttachmentNotFound
		}
		log.ErrorContext(ctx, "failed to open attachment", "category", c, "filename", filename, "err", err)
		return nil, nil, ErrStorageFailed
	}
	return att, rc, nil
}

func (s *attachmentServiceImpl) lookup(ctx context.Context, c storage.Category, filename string) (*model.Attachment, error) {
	switch c {
	case storage.CategoryPost:
		return s.postRepo.FindAttachment(ctx, filename)
	case storage.CategoryArticle:
		return s.articleRepo.FindAttachment(ctx, filename)
	case storage.CategoryComment:
		return s.commentRepo.FindAttachment(ctx, filename)
	}
	return nil, ErrParamInvalid
}

func (s *attachmentServiceImpl) holder(c storage.Category) attachmentHolder {
	switch c {
	case storage.CategoryArticle:
		return s.articleRepo
	case storage.CategoryComment:
		return s.commentRepo
	default:
		return s.postRepo
	}
}

// current 当前附件列表，归属不存在时返回 NotFound
func (s *attachmentServiceImpl) current(ctx context.Context, owner AttachmentOwner) ([]model.Attachment, error) {
	switch owner.Category {
	case storage.CategoryPost:
		post, err := s.postRepo.FindByID(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if post == nil {
			return nil, ErrPostNotFound
		}
		return post.Attachments, nil
	case storage.CategoryArticle:
		article, err := s.articleRepo.FindByID(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if article == nil {
			return nil, ErrArticleNotFound
		}
		return article.Attachments, nil
	case storage.CategoryComment:
		comment, err := s.commentRepo.FindByID(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if comment == nil || comment.IsDeleted() {
			return nil, ErrCommentNotFound
		}
		return comment.Attachments, nil
	}
	return nil, ErrParamInvalid
}

func ownerNotFound(c storage.Category) error {
	switch c {
	case storage.CategoryArticle:
		return ErrArticleNotFound
	case storage.CategoryComment:
		return ErrCommentNotFound
	default:
		return ErrPostNotFound
	}
}
