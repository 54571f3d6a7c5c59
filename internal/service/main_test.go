package service

import (
	"Agora/internal/api/config"
	"Agora/internal/model"
	"Agora/internal/pkg/redis"
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	code := m.Run()
	mr.Close()
	os.Exit(code)
}

type testEnv struct {
	posts    *memPostRepo
	articles *memArticleRepo
	comments *memCommentRepo
	saved    *memSavedRepo
	users    *memUserRepo
	blobs    *memBlobStore

	attachments AttachmentService
	commentSvc  CommentService
	engagement  EngagementService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		posts:    newMemPostRepo(),
		articles: newMemArticleRepo(),
		comments: newMemCommentRepo(),
		saved:    newMemSavedRepo(),
		users: newMemUserRepo(
			&model.User{ID: 1, Username: "alice", Nickname: "Alice"},
			&model.User{ID: 2, Username: "bob", Nickname: "Bob"},
			&model.User{ID: 99, Username: "ai-assistant", Nickname: "AI", Role: model.RoleSystem},
		),
		blobs: newMemBlobStore(),
	}
	storageCfg := config.StorageConfig{MaxContentFileSize: 5 << 20, MaxCommentFileSize: 2 << 20}
	e.attachments = NewAttachmentService(e.blobs, e.posts, e.articles, e.comments, storageCfg)
	e.commentSvc = NewCommentService(e.comments, e.posts, e.articles, e.users, e.attachments)
	e.engagement = NewEngagementService(e.posts, e.articles, e.saved)
	return e
}

func (e *testEnv) newPost(authorID uint64) *model.Post {
	return e.posts.put(&model.Post{Title: "적분 질문", Content: "부분적분이 이해가 안 됩니다", AuthorID: authorID, Categories: []string{"수학"}})
}

func (e *testEnv) newArticle(authorID uint64) *model.Article {
	a := &model.Article{Title: "스터디 모집", Content: "같이 공부하실 분", AuthorID: authorID, Category: "모집"}
	_ = e.articles.Create(context.Background(), a)
	return a
}
