package handler

import (
	"Agora/internal/api/dto"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/util"
	"Agora/internal/service"

	"github.com/gin-gonic/gin"
)

type SavedItemHandler struct {
	engagementSvc service.EngagementService
}

func NewSavedItemHandler(engagementSvc service.EngagementService) *SavedItemHandler {
	return &SavedItemHandler{engagementSvc: engagementSvc}
}

func (s *SavedItemHandler) GetSavedItems(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	items, err := s.engagementSvc.GetSavedItems(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

func (s *SavedItemHandler) ToggleSavedItem(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	var req dto.SaveItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	saved, err := s.engagementSvc.ToggleSavedItem(c.Request.Context(), userID, req.ItemID, req.ItemType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.SaveToggleDTO{Saved: saved})
}

func (s *SavedItemHandler) CheckSavedItem(c *gin.Context) {
	userID := c.GetUint64(consts.ContextUserID)

	saved, err := s.engagementSvc.IsItemSaved(c.Request.Context(), userID, c.Query("itemId"), c.Query("itemType"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.SaveToggleDTO{Saved: saved})
}
