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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepo interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	ListTopLevel(ctx context.Context, ref model.ContentRef, skip, limit int64) ([]*model.Comment, error)
	CountTopLevel(ctx context.Context, ref model.ContentRef) (int64, error)
	ListReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]*model.Comment, error)
	ListByParent(ctx context.Context, ref model.ContentRef) ([]*model.Comment, error)
	DeleteByParent(ctx context.Context, ref model.ContentRef) (int64, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, tombstone string) (*model.Comment, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string, atts []model.Attachment, limit int) error
	ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint64) (bool, error)
	PushAttachments(ctx context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error
	PullAttachment(ctx context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error)
	HasAIComment(ctx context.Context, ref model.ContentRef) (bool, error)
	HasAttachment(ctx context.Context, filename string) (bool, error)
	FindAttachment(ctx context.Context, filename string) (*model.Attachment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CommentRepoImpl struct {
	col *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) CommentRepo {
	return &CommentRepoImpl{col: db.Collection(mongodb.CommentCollection)}
}

func parentFilter(ref model.ContentRef) bson.M {
	return bson.M{"parent_ref.kind": ref.Kind, "parent_ref.id": ref.ID}
}

func activeFilter(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "state": model.CommentActive}
}

func (s *CommentRepoImpl) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt, comment.UpdatedAt = now, now
	if comment.State == "" {
		comment.State = model.CommentActive
	}
	comment.Attachments = nonNil(comment.Attachments)
	comment.Likes = nonNil(comment.Likes)

	_, err := s.col.InsertOne(ctx, comment)
	return pkgerrors.Wrap(err, "insert comment")
}

func (s *CommentRepoImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var comment model.Comment
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find comment")
	}
	return &comment, nil
}

// ListTopLevel 一级评论按创建时间升序分页
func (s *CommentRepoImpl) ListTopLevel(ctx context.Context, ref model.ContentRef, skip, limit int64) ([]*model.Comment, error) {
	filter := parentFilter(ref)
	filter["parent_comment_id"] = nil
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, filter, opts)
}

func (s *CommentRepoImpl) CountTopLevel(ctx context.Context, ref model.ContentRef) (int64, error) {
	filter := parentFilter(ref)
	filter["parent_comment_id"] = nil
	n, err := s.col.CountDocuments(ctx, filter)
	return n, pkgerrors.Wrap(err, "count top level comments")
}

// ListReplies 批量取回复，按创建时间升序
func (s *CommentRepoImpl) ListReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]*model.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"parent_comment_id": bson.M{"$in": parentIDs}}, opts)
}

func (s *CommentRepoImpl) ListByParent(ctx context.Context, ref model.ContentRef) ([]*model.Comment, error) {
	opts := options.Find().SetProjection(bson.M{"attachments": 1})
	return s.find(ctx, parentFilter(ref), opts)
}

func (s *CommentRepoImpl) DeleteByParent(ctx context.Context, ref model.ContentRef) (int64, error) {
	res, err := s.col.DeleteMany(ctx, parentFilter(ref))
	if err != nil {
		return 0, pkgerrors.Wrap(err, "delete comments by parent")
	}
	return res.DeletedCount, nil
}

// SoftDelete 替换为占位内容并清空附件，返回删除前的文档；已删除时返回 nil
func (s *CommentRepoImpl) SoftDelete(ctx context.Context, id primitive.ObjectID, tombstone string) (*model.Comment, error) {
	var before model.Comment
	err := s.col.FindOneAndUpdate(ctx, activeFilter(id),
		bson.M{"$set": bson.M{
			"content":     tombstone,
			"attachments": bson.A{},
			"state":       model.CommentDeleted,
			"updated_at":  time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "soft delete comment")
	}
	return &before, nil
}

// UpdateContent 修改内容并追加附件，附件超限时内容也不修改
func (s *CommentRepoImpl) UpdateContent(ctx context.Context, id primitive.ObjectID, content string, atts []model.Attachment, limit int) error {
	if len(atts) > limit {
		return ErrLimitReached
	}
	filter := activeFilter(id)
	update := bson.M{"$set": bson.M{
		"content":    content,
		"updated_at": time.Now(),
	}}
	if len(atts) > 0 {
		filter[attachmentGuard(limit, len(atts))] = bson.M{"$exists": false}
		update["$push"] = bson.M{"attachments": bson.M{"$each": atts}}
	}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return pkgerrors.Wrap(err, "update comment")
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(atts) == 0 {
		return ErrDocumentNotFound
	}
	n, err := s.col.CountDocuments(ctx, activeFilter(id), options.Count().SetLimit(1))
	if err != nil {
		return pkgerrors.Wrap(err, "count comment")
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return ErrLimitReached
}

func (s *CommentRepoImpl) ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint64) (bool, error) {
	return toggleMember(ctx, s.col, activeFilter(id), "likes", userID, false)
}

func (s *CommentRepoImpl) PushAttachments(ctx context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error {
	return pushAttachments(ctx, s.col, activeFilter(id), atts, limit)
}

func (s *CommentRepoImpl) PullAttachment(ctx context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error) {
	return pullAttachment(ctx, s.col, activeFilter(id), filename)
}

func (s *CommentRepoImpl) HasAIComment(ctx context.Context, ref model.ContentRef) (bool, error) {
	filter := parentFilter(ref)
	filter["is_ai_generated"] = true
	n, err := s.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, pkgerrors.Wrap(err, "count ai comments")
	}
	return n > 0, nil
}

func (s *CommentRepoImpl) HasAttachment(ctx context.Context, filename string) (bool, error) {
	return hasAttachment(ctx, s.col, filename)
}

func (s *CommentRepoImpl) FindAttachment(ctx context.Context, filename string) (*model.Attachment, error) {
	return findAttachment(ctx, s.col, bson.M{"state": model.CommentActive}, filename)
}

// Delete 物理删除，仅用于创建失败后的补偿
func (s *CommentRepoImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return pkgerrors.Wrap(err, "delete comment")
}

func (s *CommentRepoImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Comment, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find comments")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*model.Comment, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, pkgerrors.Wrap(err, "decode comments")
	}
	return list, nil
}
