package dto

// LikeToggleDTO 点赞切换结果
type LikeToggleDTO struct {
	Liked bool `json:"liked"`
}

// SaveItemReq 收藏切换请求
type SaveItemReq struct {
	ItemID   string `json:"itemId" validate:"required"`
	ItemType string `json:"itemType" validate:"required"`
}

// SaveToggleDTO 收藏切换结果
type SaveToggleDTO struct {
	Saved bool `json:"saved"`
}

// SavedItemsDTO 用户收藏列表
type SavedItemsDTO struct {
	Posts    []string `json:"posts"`
	Articles []string `json:"articles"`
}
