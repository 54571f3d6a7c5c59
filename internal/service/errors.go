package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	BadGateway          = 502
)

// 错误分类，业务错误都归属其中之一
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
	ErrStorage      = errors.New("storage error")
	ErrAugmentation = errors.New("augmentation error")
)

// BizError 带分类的业务错误，errors.Is 可匹配自身与分类
type BizError struct {
	Kind error
	Msg  string
}

func (e *BizError) Error() string {
	return e.Msg
}

func (e *BizError) Unwrap() error {
	return e.Kind
}

func newBizError(kind error, msg string) *BizError {
	return &BizError{Kind: kind, Msg: msg}
}

var (
	ErrParamInvalid       = newBizError(ErrValidation, "잘못된 요청입니다")
	ErrMissingParent      = newBizError(ErrValidation, "게시글 또는 커뮤니티 글 중 하나를 지정해야 합니다")
	ErrContentRequired    = newBizError(ErrValidation, "내용을 입력해주세요")
	ErrContentTooLong     = newBizError(ErrValidation, "내용이 너무 깁니다")
	ErrTitleInvalid       = newBizError(ErrValidation, "제목은 1자 이상 100자 이하여야 합니다")
	ErrCategoryInvalid    = newBizError(ErrValidation, "지원하지 않는 카테고리입니다")
	ErrTooManyTags        = newBizError(ErrValidation, "태그는 최대 5개까지 가능합니다")
	ErrInvalidItemType    = newBizError(ErrValidation, "유효하지 않은 항목 유형입니다")
	ErrAttachmentLimit    = newBizError(ErrValidation, "첨부파일 개수 제한을 초과했습니다")
	ErrFileNotSupported   = newBizError(ErrValidation, "지원하지 않는 파일 형식입니다")
	ErrFileTooLarge       = newBizError(ErrValidation, "파일 크기 제한을 초과했습니다")
	ErrParentNotFound     = newBizError(ErrNotFound, "대상 게시글을 찾을 수 없습니다")
	ErrPostNotFound       = newBizError(ErrNotFound, "게시글을 찾을 수 없습니다")
	ErrArticleNotFound    = newBizError(ErrNotFound, "커뮤니티 글을 찾을 수 없습니다")
	ErrCommentNotFound    = newBizError(ErrNotFound, "댓글을 찾을 수 없습니다")
	ErrAttachmentNotFound = newBizError(ErrNotFound, "첨부파일을 찾을 수 없습니다")
	ErrUserNotFound       = newBizError(ErrNotFound, "사용자를 찾을 수 없습니다")
	UnauthorizedError     = newBizError(ErrForbidden, "권한이 없습니다")
	ErrStorageFailed      = newBizError(ErrStorage, "파일 저장에 실패했습니다")
	ErrAugmentFailed      = newBizError(ErrAugmentation, "AI 응답 생성에 실패했습니다")
	UnExpectedError       = errors.New("일시적인 오류입니다. 잠시 후 다시 시도해주세요")
)

// ErrorMap 错误分类到业务码
var ErrorMap = map[error]int{
	ErrValidation:   BadRequest,
	ErrForbidden:    Forbidden,
	ErrNotFound:     NotFound,
	ErrStorage:      InternalServerError,
	ErrAugmentation: BadGateway,
	UnExpectedError: InternalServerError,
}

// CodeOf 按分类查找业务码，未知错误返回 false
func CodeOf(err error) (int, bool) {
	for kind, code := range ErrorMap {
		if errors.Is(err, kind) {
			return code, true
		}
	}
	return InternalServerError, false
}
