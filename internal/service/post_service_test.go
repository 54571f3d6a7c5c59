package service

import (
	"Agora/internal/api/config"
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/llm"
	"Agora/internal/pkg/storage"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPostSvc(e *testEnv, gen llm.Generator, cfg config.AIConfig) (PostService, *fakeDispatcher) {
	cfg.Delivery = DeliveryField
	cfg.TimeoutSeconds = 5
	cfg.LockSeconds = 30
	d := &fakeDispatcher{}
	augment := NewAugmentService(e.posts, e.comments, e.commentSvc, gen, llm.NewPromptBuilder(""), nil, cfg, 0)
	return NewPostService(e.posts, e.comments, e.saved, e.users, e.attachments, augment, d, cfg), d
}

func TestCreatePostDispatchesAugmentation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	svc, d := newPostSvc(e, &fakeGenerator{text: "x"}, config.AIConfig{GenerateOnCreate: true})

	out, err := svc.CreatePost(ctx, 1, &dto.PostCreateDTO{
		Title:   "  행렬 질문 ",
		Content: "고유값 구하는 법",
		Tags:    []string{"선형대수", "선형대수", " ", "행렬"},
	}, []*UploadFile{textFile("hw.txt", "hw")})
	require.NoError(t, err)
	assert.Equal(t, "행렬 질문", out.Title)
	assert.Equal(t, []string{model.DefaultPostCategory}, out.Categories)
	assert.Equal(t, []string{"선형대수", "행렬"}, out.Tags)
	assert.Len(t, out.Attachments, 1)
	assert.Equal(t, "alice", out.Author.Username)
	assert.Nil(t, out.AIResponse)

	require.Len(t, d.ids, 1)
	assert.Equal(t, out.ID, d.ids[0].Hex())
}

func TestCreatePostValidation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	svc, d := newPostSvc(e, nil, config.AIConfig{GenerateOnCreate: true})

	_, err := svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "", Content: "c"}, nil)
	assert.ErrorIs(t, err, ErrTitleInvalid)

	_, err = svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "t", Content: "c", Categories: []string{"요리"}}, nil)
	assert.ErrorIs(t, err, ErrCategoryInvalid)

	_, err = svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "t", Content: "c", Tags: []string{"a", "b", "c", "d", "e", "f"}}, nil)
	assert.ErrorIs(t, err, ErrTooManyTags)

	_, err = svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "t", Content: "c"}, []*UploadFile{
		textFile("1.txt", "1"), textFile("2.txt", "2"), textFile("3.txt", "3"), textFile("4.txt", "4"),
	})
	assert.ErrorIs(t, err, ErrAttachmentLimit)
	assert.Equal(t, 0, e.blobs.count(storage.CategoryPost))

	// 生成器未配置时不投递
	out, err := svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "t", Content: "c"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Empty(t, d.ids)
}

func TestGetPostGeneratesOnRead(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, &fakeGenerator{text: "on read"}, config.AIConfig{GenerateOnRead: true})

	out, err := svc.GetPost(ctx, post.ID.Hex(), 2)
	require.NoError(t, err)
	require.NotNil(t, out.AIResponse)
	assert.Equal(t, "on read", *out.AIResponse)
	assert.NotEmpty(t, out.AIResponseCreatedAt)
}

func TestGetPostSurvivesProviderFailure(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, &fakeGenerator{err: errors.New("timeout")}, config.AIConfig{GenerateOnRead: true})

	out, err := svc.GetPost(ctx, post.ID.Hex(), 0)
	require.NoError(t, err)
	assert.Nil(t, out.AIResponse)
}

func TestGetPostCountsViewOncePerViewer(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, nil, config.AIConfig{})

	_, err := svc.GetPost(ctx, post.ID.Hex(), 2)
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, post.ID.Hex(), 2)
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, post.ID.Hex(), 0)
	require.NoError(t, err)

	stored, _ := e.posts.FindByID(ctx, post.ID)
	assert.Equal(t, int64(2), stored.ViewCount)

	_, err = svc.GetPost(ctx, primitive.NewObjectID().Hex(), 0)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.GetPost(ctx, "bad", 0)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestUpdatePostSolvedAndFields(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, nil, config.AIConfig{})

	solved := true
	title := "수정된 제목"
	out, err := svc.UpdatePost(ctx, post.ID.Hex(), &dto.PostUpdateDTO{IsSolved: &solved, Title: &title}, 1)
	require.NoError(t, err)
	assert.True(t, out.IsSolved)
	assert.Equal(t, title, out.Title)
	assert.Equal(t, post.Content, out.Content)

	_, err = svc.UpdatePost(ctx, post.ID.Hex(), &dto.PostUpdateDTO{Categories: []string{"없는분류"}}, 1)
	assert.ErrorIs(t, err, ErrCategoryInvalid)

	_, err = svc.UpdatePost(ctx, primitive.NewObjectID().Hex(), &dto.PostUpdateDTO{IsSolved: &solved}, 1)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePostCascadesWithMissingFiles(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	svc, _ := newPostSvc(e, nil, config.AIConfig{})

	out, err := svc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "t", Content: "c"},
		[]*UploadFile{textFile("a.txt", "a"), textFile("b.txt", "b")})
	require.NoError(t, err)
	_, err = e.commentSvc.CreateComment(ctx, 2, &dto.CommentCreateDTO{Content: "c", PostID: out.ID},
		[]*UploadFile{textFile("c.txt", "c")})
	require.NoError(t, err)
	_, err = e.engagement.ToggleSavedItem(ctx, 2, out.ID, "post")
	require.NoError(t, err)

	// 磁盘上的文件先丢失
	require.NoError(t, e.blobs.Delete(ctx, storage.CategoryPost, out.Attachments[0].Filename))

	require.NoError(t, svc.DeletePost(ctx, out.ID))

	assert.Equal(t, 0, e.blobs.count(storage.CategoryPost))
	assert.Equal(t, 0, e.blobs.count(storage.CategoryComment))
	assert.Equal(t, 0, e.comments.count())
	items, _ := e.engagement.GetSavedItems(ctx, 2)
	assert.Empty(t, items.Posts)

	assert.ErrorIs(t, svc.DeletePost(ctx, out.ID), ErrPostNotFound)
}

func TestPostAttachmentsAndOwner(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, nil, config.AIConfig{})

	added, err := svc.AddAttachments(ctx, post.ID.Hex(), []*UploadFile{textFile("x.txt", "x")})
	require.NoError(t, err)
	require.Len(t, added, 1)
	require.NoError(t, svc.RemoveAttachment(ctx, post.ID.Hex(), added[0].Filename))
	assert.ErrorIs(t, svc.RemoveAttachment(ctx, post.ID.Hex(), added[0].Filename), ErrAttachmentNotFound)

	owner, err := svc.GetPostOwner(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), owner)
	_, err = svc.GetPostOwner(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGenerateAIResponseManually(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	svc, _ := newPostSvc(e, &fakeGenerator{text: "manual"}, config.AIConfig{})

	out, err := svc.GenerateAIResponse(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, out.Outcome)

	out, err = svc.GenerateAIResponse(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExisting, out.Outcome)

	_, err = svc.GenerateAIResponse(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, svc.DeleteAIResponse(ctx, post.ID.Hex()))
	stored, _ := e.posts.FindByID(ctx, post.ID)
	assert.False(t, stored.HasAIResponse())
	assert.ErrorIs(t, svc.DeleteAIResponse(ctx, primitive.NewObjectID().Hex()), ErrPostNotFound)

	out, err = svc.GenerateAIResponse(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, out.Outcome)
}

func TestGenerateAIResponseFailureIsReported(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	gen := &fakeGenerator{err: errors.New("upstream 503")}
	svc, _ := newPostSvc(e, gen, config.AIConfig{})

	_, err := svc.GenerateAIResponse(ctx, post.ID.Hex())
	assert.ErrorIs(t, err, ErrAugmentFailed)
	code, known := CodeOf(err)
	assert.True(t, known)
	assert.Equal(t, BadGateway, code)

	// 失败不写入任何内容，之后可以再次触发
	stored, _ := e.posts.FindByID(ctx, post.ID)
	assert.False(t, stored.HasAIResponse())
	_, err = svc.GenerateAIResponse(ctx, post.ID.Hex())
	assert.ErrorIs(t, err, ErrAugmentFailed)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestArticleLifecycle(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	svc := NewArticleService(e.articles, e.comments, e.saved, e.users, e.attachments)

	out, err := svc.CreateArticle(ctx, 2, &dto.ArticleCreateDTO{Title: "후기", Content: "좋았어요"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultArticleCategory, out.Category)

	_, err = svc.CreateArticle(ctx, 2, &dto.ArticleCreateDTO{Title: "t", Content: "c", Category: "수학"}, nil)
	assert.ErrorIs(t, err, ErrCategoryInvalid)

	category := "후기"
	updated, err := svc.UpdateArticle(ctx, out.ID, &dto.ArticleUpdateDTO{Category: &category}, 2)
	require.NoError(t, err)
	assert.Equal(t, "후기", updated.Category)

	got, err := svc.GetArticle(ctx, out.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
	assert.Equal(t, "bob", got.Author.Username)

	owner, err := svc.GetArticleOwner(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), owner)

	require.NoError(t, svc.DeleteArticle(ctx, out.ID))
	_, err = svc.GetArticle(ctx, out.ID, 1)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}
