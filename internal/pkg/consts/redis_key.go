package consts

const (
	CommentTotalKey        = "comment:total:"
	CommentTotalVersionKey = "comment:total:ver:"
	PostViewKey            = "post:view:"
	ArticleViewKey         = "article:view:"
)

const (
	AIGenerateLock = "ai:generate:lock:"
)
