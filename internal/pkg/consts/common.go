package consts

const (
	DefaultPage         = 1
	DefaultCommentLimit = 20
	MaxCommentLimit     = 100
)

const (
	// ContextUserID 认证中间件写入的用户 id
	ContextUserID = "user_id"
	ContextRoles  = "roles"
)
