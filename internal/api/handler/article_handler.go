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

type ArticleHandler struct {
	articleSvc    service.ArticleService
	engagementSvc service.EngagementService
}

func NewArticleHandler(articleSvc service.ArticleService, engagementSvc service.EngagementService) *ArticleHandler {
	return &ArticleHandler{
		articleSvc:    articleSvc,
		engagementSvc: engagementSvc,
	}
}

func (s *ArticleHandler) CreateArticle(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.ArticleCreateDTO
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

	article, err := s.articleSvc.CreateArticle(c.Request.Context(), userID, &req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

func (s *ArticleHandler) GetArticle(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	article, err := s.articleSvc.GetArticle(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

func (s *ArticleHandler) UpdateArticle(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)
	articleID := c.Param("id")
	if !requireOwner(c, s.articleSvc.GetArticleOwner, articleID) {
		return
	}

	var req dto.ArticleUpdateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	article, err := s.articleSvc.UpdateArticle(c.Request.Context(), articleID, &req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, article)
}

func (s *ArticleHandler) DeleteArticle(c *gin.Context) {
	articleID := c.Param("id")
	if !requireOwner(c, s.articleSvc.GetArticleOwner, articleID) {
		return
	}

	if err := s.articleSvc.DeleteArticle(c.Request.Context(), articleID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ArticleHandler) ToggleLike(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	liked, err := s.engagementSvc.ToggleEntityLike(c.Request.Context(), model.ContentRef{Kind: model.KindArticle, ID: oid}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.LikeToggleDTO{Liked: liked})
}

func (s *ArticleHandler) AddAttachments(c *gin.Context) {
	articleID := c.Param("id")
	if !requireOwner(c, s.articleSvc.GetArticleOwner, articleID) {
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

	atts, err := s.articleSvc.AddAttachments(c.Request.Context(), articleID, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, atts)
}

func (s *ArticleHandler) RemoveAttachment(c *gin.Context) {
	articleID := c.Param("id")
	if !requireOwner(c, s.articleSvc.GetArticleOwner, articleID) {
		return
	}

	if err := s.articleSvc.RemoveAttachment(c.Request.Context(), articleID, c.Param("filename")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
