package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentState string

const (
	CommentActive  CommentState = "active"
	CommentDeleted CommentState = "deleted"
)

const (
	CommentMaxLen = 2000
	// CommentTombstone 软删除后保留的占位内容
	CommentTombstone = "삭제된 댓글입니다"
)

// Comment 评论，ParentCommentID 为空表示一级评论
type Comment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Content         string              `bson:"content" json:"content"`
	AuthorID        uint64              `bson:"author_id" json:"authorId"`
	Parent          ContentRef          `bson:"parent_ref" json:"parent"`
	ParentCommentID *primitive.ObjectID `bson:"parent_comment_id" json:"parentCommentId"`
	Attachments     []Attachment        `bson:"attachments" json:"attachments"`
	Likes           []uint64            `bson:"likes" json:"likes"`
	State           CommentState        `bson:"state" json:"state"`
	IsAIGenerated   bool                `bson:"is_ai_generated" json:"isAIGenerated"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`
}

func (c *Comment) IsDeleted() bool {
	return c.State == CommentDeleted
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}
