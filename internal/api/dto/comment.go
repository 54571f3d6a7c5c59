package dto

// CommentCreateDTO 创建评论/回复，postId 与 articleId 只能有一个
type CommentCreateDTO struct {
	Content   string `form:"content" json:"content"`
	PostID    string `form:"postId" json:"postId"`
	ArticleID string `form:"articleId" json:"articleId"`
	ParentID  string `form:"parentId" json:"parentId"`
}

// CommentUpdateDTO 编辑评论
type CommentUpdateDTO struct {
	Content string `form:"content" json:"content"`
}

// CommentListQuery 一级评论分页查询
type CommentListQuery struct {
	PostID    string `form:"postId"`
	ArticleID string `form:"articleId"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

// CommentDTO 评论返回详情
type CommentDTO struct {
	ID              string           `json:"id"`
	Content         string           `json:"content"`
	Author          *AuthorDTO       `json:"author"`
	ParentKind      string           `json:"parentKind"`
	ParentID        string           `json:"parentId"`
	ParentCommentID string           `json:"parentCommentId,omitempty"`
	Attachments     []*AttachmentDTO `json:"attachments"`
	LikesCount      int              `json:"likesCount"`
	IsLiked         bool             `json:"isLiked"`
	IsDeleted       bool             `json:"isDeleted"`
	IsAIGenerated   bool             `json:"isAIGenerated"`
	CreatedAt       string           `json:"createdAt"`
	UpdatedAt       string           `json:"updatedAt"`

	Replies []*CommentDTO `json:"replies,omitempty"`
}

// CommentPageDTO 一级评论分页结果
type CommentPageDTO struct {
	Comments   []*CommentDTO  `json:"comments"`
	Pagination *PaginationDTO `json:"pagination"`
}
