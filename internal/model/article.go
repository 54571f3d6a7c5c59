package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArticleCategories 社区文章分类
var ArticleCategories = []string{"질문", "정보", "모집", "후기", "기타"}

const DefaultArticleCategory = "기타"

// Article 社区文章
type Article struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Content     string               `bson:"content" json:"content"`
	AuthorID    uint64               `bson:"author_id" json:"authorId"`
	Category    string               `bson:"category" json:"category"`
	Tags        []string             `bson:"tags" json:"tags"`
	Attachments []Attachment         `bson:"attachments" json:"attachments"`
	Likes       []uint64             `bson:"likes" json:"likes"`
	Comments    []primitive.ObjectID `bson:"comments" json:"comments"`
	ViewCount   int64                `bson:"view_count" json:"viewCount"`
	CreatedAt   time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updatedAt"`
}

func IsArticleCategory(c string) bool {
	for _, v := range ArticleCategories {
		if v == c {
			return true
		}
	}
	return false
}
