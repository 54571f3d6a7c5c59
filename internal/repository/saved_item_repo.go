package repository

import (
	"Agora/internal/model"
	mongodb "Agora/internal/pkg/mongo"
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SavedItemRepo 用户收藏，每个用户一个文档
type SavedItemRepo interface {
	Toggle(ctx context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error)
	IsSaved(ctx context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error)
	Get(ctx context.Context, userID uint64) (*model.SavedItems, error)
	RemoveEverywhere(ctx context.Context, kind model.ContentKind, itemID primitive.ObjectID) error
}

type SavedItemRepoImpl struct {
	col *mongo.Collection
}

func NewSavedItemRepo(db *mongo.Database) SavedItemRepo {
	return &SavedItemRepoImpl{col: db.Collection(mongodb.SavedItemsCollection)}
}

func savedField(kind model.ContentKind) string {
	if kind == model.KindArticle {
		return "articles"
	}
	return "posts"
}

func (s *SavedItemRepoImpl) Toggle(ctx context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error) {
	return toggleMember(ctx, s.col, bson.M{"_id": userID}, savedField(kind), itemID, true)
}

func (s *SavedItemRepoImpl) IsSaved(ctx context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"_id": userID, savedField(kind): itemID}, options.Count().SetLimit(1))
	if err != nil {
		return false, pkgerrors.Wrap(err, "count saved item")
	}
	return n > 0, nil
}

func (s *SavedItemRepoImpl) Get(ctx context.Context, userID uint64) (*model.SavedItems, error) {
	items := &model.SavedItems{UserID: userID}
	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(items)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.Wrap(err, "find saved items")
	}
	items.Posts = nonNil(items.Posts)
	items.Articles = nonNil(items.Articles)
	return items, nil
}

// RemoveEverywhere 内容删除后从所有用户收藏中移除
func (s *SavedItemRepoImpl) RemoveEverywhere(ctx context.Context, kind model.ContentKind, itemID primitive.ObjectID) error {
	field := savedField(kind)
	_, err := s.col.UpdateMany(ctx, bson.M{field: itemID}, bson.M{"$pull": bson.M{field: itemID}})
	return pkgerrors.Wrap(err, "remove saved references")
}
