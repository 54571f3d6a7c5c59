package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// Category 附件归属，决定存放目录
type Category string

const (
	CategoryPost    Category = "post"
	CategoryArticle Category = "article"
	CategoryComment Category = "comment"
	CategoryProfile Category = "profile"
	CategoryImage   Category = "image"
)

// Categories 所有存储目录
var Categories = []Category{CategoryPost, CategoryArticle, CategoryComment, CategoryProfile, CategoryImage}

// AttachmentCategories 内嵌在内容或评论中的附件目录，清理任务按此遍历
var AttachmentCategories = []Category{CategoryPost, CategoryArticle, CategoryComment}

var (
	ErrInvalidName  = errors.New("invalid blob name")
	ErrBlobNotFound = errors.New("blob not found")
)

// Dir 存放目录名
func (c Category) Dir() string {
	switch c {
	case CategoryProfile:
		return "profile-images"
	case CategoryImage:
		return "post-images"
	default:
		return string(c) + "-attachments"
	}
}

// PublicPath 对外暴露的访问路径
func PublicPath(c Category, name string) string {
	return "/" + path.Join("uploads", c.Dir(), name)
}

// BlobInfo 存储中文件的基本信息
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// BlobStore 附件文件存储
type BlobStore interface {
	Save(ctx context.Context, c Category, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, c Category, name string) error
	Open(ctx context.Context, c Category, name string) (io.ReadCloser, error)
	List(ctx context.Context, c Category) ([]BlobInfo, error)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	return nil
}
