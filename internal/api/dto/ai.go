package dto

// AugmentResultDTO AI 回答生成结果
type AugmentResultDTO struct {
	Outcome    string  `json:"outcome"`
	AIResponse *string `json:"aiResponse,omitempty"`
	CommentID  string  `json:"commentId,omitempty"`
}
