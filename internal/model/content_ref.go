package model

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentKind 内容实体类型
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindArticle ContentKind = "article"
)

var ErrInvalidContentRef = errors.New("invalid content reference")

// Valid 是否为已知的内容类型
func (k ContentKind) Valid() bool {
	return k == KindPost || k == KindArticle
}

// ContentRef 评论或收藏指向的内容实体，恰好一种类型
type ContentRef struct {
	Kind ContentKind        `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

func (r ContentRef) Validate() error {
	if !r.Kind.Valid() || r.ID.IsZero() {
		return ErrInvalidContentRef
	}
	return nil
}

func (r ContentRef) String() string {
	return string(r.Kind) + ":" + r.ID.Hex()
}

// NewContentRef 从两个可选 id 构造引用，必须且只能提供一个
func NewContentRef(postID, articleID string) (ContentRef, error) {
	if (postID == "") == (articleID == "") {
		return ContentRef{}, ErrInvalidContentRef
	}
	kind, raw := KindPost, postID
	if articleID != "" {
		kind, raw = KindArticle, articleID
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return ContentRef{}, ErrInvalidContentRef
	}
	return ContentRef{Kind: kind, ID: id}, nil
}
