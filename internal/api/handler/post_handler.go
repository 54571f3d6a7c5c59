package handler

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/util"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostHandler struct {
	postSvc       service.PostService
	engagementSvc service.EngagementService
}

func NewPostHandler(postSvc service.PostService, engagementSvc service.EngagementService) *PostHandler {
	return &PostHandler{
		postSvc:       postSvc,
		engagementSvc: engagementSvc,
	}
}

func (s *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.PostCreateDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}
	files, err := formFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.CreatePost(c.Request.Context(), userID, &req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	post, err := s.postSvc.GetPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) UpdatePost(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)
	postID := c.Param("id")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	var req dto.PostUpdateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.UpdatePost(c.Request.Context(), postID, &req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// UpdateStatus 标记问题是否已解决
func (s *PostHandler) UpdateStatus(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)
	postID := c.Param("id")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	var req dto.PostStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := s.postSvc.UpdatePost(c.Request.Context(), postID, &dto.PostUpdateDTO{IsSolved: &req.IsSolved}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	if err := s.postSvc.DeletePost(c.Request.Context(), postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *PostHandler) ToggleLike(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	liked, err := s.engagementSvc.ToggleEntityLike(c.Request.Context(), model.ContentRef{Kind: model.KindPost, ID: oid}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.LikeToggleDTO{Liked: liked})
}

func (s *PostHandler) AddAttachments(c *gin.Context) {
	postID := c.Param("id")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}
	files, err := formFiles(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(files) == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	atts, err := s.postSvc.AddAttachments(c.Request.Context(), postID, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, atts)
}

func (s *PostHandler) RemoveAttachment(c *gin.Context) {
	postID := c.Param("id")
	if !requireOwner(c, s.postSvc.GetPostOwner, postID) {
		return
	}

	if err := s.postSvc.RemoveAttachment(c.Request.Context(), postID, c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
