package dto

// AuthorDTO 作者简要信息
type AuthorDTO struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// AttachmentDTO 附件信息
type AttachmentDTO struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	UploadDate   string `json:"uploadDate"`
}

// PaginationDTO 分页信息
type PaginationDTO struct {
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	TotalResults int64 `json:"totalResults"`
}
