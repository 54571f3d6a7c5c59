package repository

import (
	"Agora/internal/model"
	mongodb "Agora/internal/pkg/mongo"
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PostPatch 帖子可修改字段，nil 表示不修改
type PostPatch struct {
	Title      *string
	Content    *string
	Categories []string
	Tags       []string
	IsSolved   *bool
}

type PostRepo interface {
	ContentOps
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	Update(ctx context.Context, id primitive.ObjectID, patch *PostPatch) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetAIResponseIfEmpty(ctx context.Context, id primitive.ObjectID, text string, at time.Time) (bool, error)
	ClearAIResponse(ctx context.Context, id primitive.ObjectID) error
}

type PostRepoImpl struct {
	*contentOps
}

func NewPostRepo(db *mongo.Database) PostRepo {
	return &PostRepoImpl{contentOps: &contentOps{col: db.Collection(mongodb.PostCollection)}}
}

func (s *PostRepoImpl) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt, post.UpdatedAt = now, now
	post.Attachments = nonNil(post.Attachments)
	post.Likes = nonNil(post.Likes)
	post.Comments = nonNil(post.Comments)
	post.Tags = nonNil(post.Tags)

	_, err := s.col.InsertOne(ctx, post)
	return pkgerrors.Wrap(err, "insert post")
}

func (s *PostRepoImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find post")
	}
	return &post, nil
}

func (s *PostRepoImpl) Update(ctx context.Context, id primitive.ObjectID, patch *PostPatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Categories != nil {
		set["categories"] = patch.Categories
	}
	if patch.Tags != nil {
		set["tags"] = patch.Tags
	}
	if patch.IsSolved != nil {
		set["is_solved"] = *patch.IsSolved
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return pkgerrors.Wrap(err, "update post")
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostRepoImpl) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete post")
	}
	return res.DeletedCount > 0, nil
}

// SetAIResponseIfEmpty 仅当 AI 回答尚未写入时写入，返回是否由本次写入
func (s *PostRepoImpl) SetAIResponseIfEmpty(ctx context.Context, id primitive.ObjectID, text string, at time.Time) (bool, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"ai_response": nil},
			bson.M{"ai_response": ""},
		},
	}
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"ai_response":            text,
		"ai_response_created_at": at,
	}})
	if err != nil {
		return false, pkgerrors.Wrap(err, "set ai response")
	}
	return res.ModifiedCount > 0, nil
}

// ClearAIResponse 清空 AI 回答，之后可重新生成
func (s *PostRepoImpl) ClearAIResponse(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ai_response":            nil,
		"ai_response_created_at": nil,
	}})
	if err != nil {
		return pkgerrors.Wrap(err, "clear ai response")
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
