package dto

// PostCreateDTO 创建问题帖
type PostCreateDTO struct {
	Title      string   `form:"title" json:"title" validate:"required,max=100"`
	Content    string   `form:"content" json:"content" validate:"required"`
	Categories []string `form:"categories" json:"categories"`
	Tags       []string `form:"tags" json:"tags" validate:"max=5"`
}

// PostUpdateDTO 修改问题帖，未提供的字段保持不变
type PostUpdateDTO struct {
	Title      *string  `json:"title" validate:"omitempty,max=100"`
	Content    *string  `json:"content"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags" validate:"omitempty,max=5"`
	IsSolved   *bool    `json:"isSolved"`
}

// PostDTO 问题帖详情
type PostDTO struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Content             string           `json:"content"`
	Author              *AuthorDTO       `json:"author"`
	Categories          []string         `json:"categories"`
	Tags                []string         `json:"tags"`
	Attachments         []*AttachmentDTO `json:"attachments"`
	LikesCount          int              `json:"likesCount"`
	IsLiked             bool             `json:"isLiked"`
	CommentsCount       int              `json:"commentsCount"`
	ViewCount           int64            `json:"viewCount"`
	IsSolved            bool             `json:"isSolved"`
	AIResponse          *string          `json:"aiResponse"`
	AIResponseCreatedAt string           `json:"aiResponseCreatedAt,omitempty"`
	CreatedAt           string           `json:"createdAt"`
	UpdatedAt           string           `json:"updatedAt"`
}

// PostStatusDTO 修改解决状态
type PostStatusDTO struct {
	IsSolved bool `json:"isSolved"`
}
