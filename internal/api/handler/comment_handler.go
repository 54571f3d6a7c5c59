package handler

import (
	"Agora/internal/api/dto"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentSvc service.CommentService
}

func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentSvc: commentSvc,
	}
}

func (s *CommentHandler) CreateComment(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.CommentCreateDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	files, err := formFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comment, err := s.commentSvc.CreateComment(c.Request.Context(), userID, &req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) CreateReply(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.CommentUpdateDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	files, err := formFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	reply, err := s.commentSvc.CreateReply(c.Request.Context(), userID, c.Param("commentId"), req.Content, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, reply)
}

func (s *CommentHandler) GetComment(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	comment, err := s.commentSvc.GetComment(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	if !requireOwner(c, s.commentSvc.GetCommentOwner, commentID) {
		return
	}

	var req dto.CommentUpdateDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	files, err := formFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comment, err := s.commentSvc.UpdateComment(c.Request.Context(), commentID, req.Content, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	if !requireOwner(c, s.commentSvc.GetCommentOwner, commentID) {
		return
	}

	if err := s.commentSvc.DeleteComment(c.Request.Context(), commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *CommentHandler) ListPostComments(c *gin.Context) {
	s.list(c, func(q *dto.CommentListQuery) { q.PostID = c.Param("postId") })
}

func (s *CommentHandler) ListArticleComments(c *gin.Context) {
	s.list(c, func(q *dto.CommentListQuery) { q.ArticleID = c.Param("articleId") })
}

// list 归属只取路径参数，查询串只提供分页
func (s *CommentHandler) list(c *gin.Context, scope func(q *dto.CommentListQuery)) {
	userID := c.GetUint64(consts.ContextUserID)
	query := &dto.CommentListQuery{}
	if err := c.ShouldBindQuery(query); err != nil {
		response.Error(c, err)
		return
	}
	query.PostID, query.ArticleID = "", ""
	scope(query)

	page, err := s.commentSvc.ListTopLevelComments(c.Request.Context(), query, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CommentHandler) ToggleLike(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	liked, err := s.commentSvc.ToggleCommentLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.LikeToggleDTO{Liked: liked})
}

func (s *CommentHandler) RemoveAttachment(c *gin.Context) {
	commentID := c.Param("id")
	if !requireOwner(c, s.commentSvc.GetCommentOwner, commentID) {
		return
	}

	if err := s.commentSvc.RemoveCommentAttachment(c.Request.Context(), commentID, c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
