package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostCategories 问题帖的学科分类
var PostCategories = []string{
	"수학", "물리학", "화학", "생물학", "컴퓨터공학", "전자공학",
	"기계공학", "경영학", "경제학", "심리학", "사회학", "기타",
}

const DefaultPostCategory = "기타"

const (
	PostTitleMaxLen = 100
	MaxTags         = 5
)

// Post 问题帖
type Post struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title               string               `bson:"title" json:"title"`
	Content             string               `bson:"content" json:"content"`
	AuthorID            uint64               `bson:"author_id" json:"authorId"`
	Categories          []string             `bson:"categories" json:"categories"`
	Tags                []string             `bson:"tags" json:"tags"`
	Attachments         []Attachment         `bson:"attachments" json:"attachments"`
	Likes               []uint64             `bson:"likes" json:"likes"`
	Comments            []primitive.ObjectID `bson:"comments" json:"comments"`
	ViewCount           int64                `bson:"view_count" json:"viewCount"`
	IsSolved            bool                 `bson:"is_solved" json:"isSolved"`
	AIResponse          *string              `bson:"ai_response" json:"aiResponse"`
	AIResponseCreatedAt *time.Time           `bson:"ai_response_created_at" json:"aiResponseCreatedAt"`
	CreatedAt           time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasAIResponse AI 回答是否已写入
func (p *Post) HasAIResponse() bool {
	return p.AIResponse != nil && *p.AIResponse != ""
}

// PrimaryCategory 第一个分类，用于选择提示词
func (p *Post) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return DefaultPostCategory
	}
	return p.Categories[0]
}

func IsPostCategory(c string) bool {
	for _, v := range PostCategories {
		if v == c {
			return true
		}
	}
	return false
}
