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

// ArticlePatch 文章可修改字段
type ArticlePatch struct {
	Title    *string
	Content  *string
	Category *string
	Tags     []string
}

type ArticleRepo interface {
	ContentOps
	Create(ctx context.Context, article *model.Article) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Article, error)
	Update(ctx context.Context, id primitive.ObjectID, patch *ArticlePatch) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type ArticleRepoImpl struct {
	*contentOps
}

func NewArticleRepo(db *mongo.Database) ArticleRepo {
	return &ArticleRepoImpl{contentOps: &contentOps{col: db.Collection(mongodb.ArticleCollection)}}
}

func (s *ArticleRepoImpl) Create(ctx context.Context, article *model.Article) error {
	now := time.Now()
	if article.ID.IsZero() {
		article.ID = primitive.NewObjectID()
	}
	article.CreatedAt, article.UpdatedAt = now, now
	article.Attachments = nonNil(article.Attachments)
	article.Likes = nonNil(article.Likes)
	article.Comments = nonNil(article.Comments)
	article.Tags = nonNil(article.Tags)

	_, err := s.col.InsertOne(ctx, article)
	return pkgerrors.Wrap(err, "insert article")
}

func (s *ArticleRepoImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Article, error) {
	var article model.Article
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&article); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find article")
	}
	return &article, nil
}

func (s *ArticleRepoImpl) Update(ctx context.Context, id primitive.ObjectID, patch *ArticlePatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Tags != nil {
		set["tags"] = patch.Tags
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return pkgerrors.Wrap(err, "update article")
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *ArticleRepoImpl) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete article")
	}
	return res.DeletedCount > 0, nil
}
