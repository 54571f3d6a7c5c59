package handler

import (
	"Agora/internal/pkg/response"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	postSvc service.PostService
}

func NewAIHandler(postSvc service.PostService) *AIHandler {
	return &AIHandler{postSvc: postSvc}
}

// Generate 手动触发帖子 AI 回答
func (s *AIHandler) Generate(c *gin.Context) {
	postID := c.Param("postId")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	res, err := s.postSvc.GenerateAIResponse(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *AIHandler) DeleteResponse(c *gin.Context) {
	postID := c.Param("postId")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	if err := s.postSvc.DeleteAIResponse(c.Request.Context(), postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
