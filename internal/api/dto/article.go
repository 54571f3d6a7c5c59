package dto

// ArticleCreateDTO 创建社区文章
type ArticleCreateDTO struct {
	Title    string   `form:"title" json:"title" validate:"required,max=100"`
	Content  string   `form:"content" json:"content" validate:"required"`
	Category string   `form:"category" json:"category"`
	Tags     []string `form:"tags" json:"tags" validate:"max=5"`
}

// ArticleUpdateDTO 修改社区文章
type ArticleUpdateDTO struct {
	Title    *string  `json:"title" validate:"omitempty,max=100"`
	Content  *string  `json:"content"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags" validate:"omitempty,max=5"`
}

// ArticleDTO 社区文章详情
type ArticleDTO struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Author        *AuthorDTO       `json:"author"`
	Category      string           `json:"category"`
	Tags          []string         `json:"tags"`
	Attachments   []*AttachmentDTO `json:"attachments"`
	LikesCount    int              `json:"likesCount"`
	IsLiked       bool             `json:"isLiked"`
	CommentsCount int              `json:"commentsCount"`
	ViewCount     int64            `json:"viewCount"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}
