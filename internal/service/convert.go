package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func toAttachmentDTOs(atts []model.Attachment) []*dto.AttachmentDTO {
	out := make([]*dto.AttachmentDTO, 0, len(atts))
	for i := range atts {
		item := &dto.AttachmentDTO{}
		_ = copier.Copy(item, &atts[i])
		item.UploadDate = formatTime(atts[i].UploadDate)
		out = append(out, item)
	}
	return out
}

func toAuthorDTO(user *model.User) *dto.AuthorDTO {
	if user == nil {
		return nil
	}
	author := &dto.AuthorDTO{}
	_ = copier.Copy(author, user)
	author.ProfileImage = ""
	if user.ProfileImage != nil {
		author.ProfileImage = *user.ProfileImage
	}
	return author
}

func containsUser(ids []uint64, userID uint64) bool {
	if userID == 0 {
		return false
	}
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// loadAuthors 批量查询作者，查询失败时作者信息留空
func loadAuthors(ctx context.Context, userRepo repository.UserRepo, ids []uint64) map[uint64]*dto.AuthorDTO {
	authors := make(map[uint64]*dto.AuthorDTO, len(ids))
	if len(ids) == 0 {
		return authors
	}
	users, err := userRepo.GetUserByIds(ctx, uniqueIDs(ids))
	if err != nil {
		log.WarnContext(ctx, "failed to load authors", "err", err)
		return authors
	}
	for _, u := range users {
		authors[u.ID] = toAuthorDTO(u)
	}
	return authors
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
