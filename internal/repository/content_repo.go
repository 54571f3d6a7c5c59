package repository

import (
	"Agora/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrLimitReached     = errors.New("attachment limit reached")
)

// ContentOps 帖子与文章共用的原子操作
type ContentOps interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint64) (bool, error)
	PushComment(ctx context.Context, id, commentID primitive.ObjectID) error
	PullComment(ctx context.Context, id, commentID primitive.ObjectID) error
	PushAttachments(ctx context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error
	PullAttachment(ctx context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error)
	IncViewCount(ctx context.Context, id primitive.ObjectID) error
	GetOwner(ctx context.Context, id primitive.ObjectID) (uint64, error)
	HasAttachment(ctx context.Context, filename string) (bool, error)
	FindAttachment(ctx context.Context, filename string) (*model.Attachment, error)
}

type contentOps struct {
	col *mongo.Collection
}

func (s *contentOps) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, pkgerrors.Wrap(err, "count content")
	}
	return n > 0, nil
}

func (s *contentOps) ToggleLike(ctx context.Context, id primitive.ObjectID, userID uint64) (bool, error) {
	return toggleMember(ctx, s.col, bson.M{"_id": id}, "likes", userID, false)
}

func (s *contentOps) PushComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": commentID}})
	if err != nil {
		return pkgerrors.Wrap(err, "push comment id")
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *contentOps) PullComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{"comments": commentID}})
	return pkgerrors.Wrap(err, "pull comment id")
}

func (s *contentOps) PushAttachments(ctx context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error {
	return pushAttachments(ctx, s.col, bson.M{"_id": id}, atts, limit)
}

func (s *contentOps) PullAttachment(ctx context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error) {
	return pullAttachment(ctx, s.col, bson.M{"_id": id}, filename)
}

func (s *contentOps) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}})
	return pkgerrors.Wrap(err, "inc view count")
}

func (s *contentOps) GetOwner(ctx context.Context, id primitive.ObjectID) (uint64, error) {
	var doc struct {
		AuthorID uint64 `bson:"author_id"`
	}
	err := s.col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"author_id": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrDocumentNotFound
		}
		return 0, pkgerrors.Wrap(err, "find owner")
	}
	return doc.AuthorID, nil
}

func (s *contentOps) HasAttachment(ctx context.Context, filename string) (bool, error) {
	return hasAttachment(ctx, s.col, filename)
}

func (s *contentOps) FindAttachment(ctx context.Context, filename string) (*model.Attachment, error) {
	return findAttachment(ctx, s.col, bson.M{}, filename)
}

// toggleMember 集合语义切换：成员存在则移除，否则加入；返回切换后是否为成员
func toggleMember(ctx context.Context, col *mongo.Collection, filter bson.M, field string, member any, upsert bool) (bool, error) {
	pullFilter := bson.M{field: member}
	for k, v := range filter {
		pullFilter[k] = v
	}
	res, err := col.UpdateOne(ctx, pullFilter, bson.M{"$pull": bson.M{field: member}})
	if err != nil {
		return false, pkgerrors.Wrapf(err, "pull %s", field)
	}
	if res.ModifiedCount > 0 {
		return false, nil
	}

	res, err = col.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{field: member}}, options.Update().SetUpsert(upsert))
	if err != nil && upsert && mongo.IsDuplicateKeyError(err) {
		// 并发 upsert 时另一方已建档，再执行一次普通更新
		res, err = col.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{field: member}})
	}
	if err != nil {
		return false, pkgerrors.Wrapf(err, "add %s", field)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return false, ErrDocumentNotFound
	}
	return true, nil
}

// pushAttachments 仅当追加后数量不超过 limit 时写入
func pushAttachments(ctx context.Context, col *mongo.Collection, filter bson.M, atts []model.Attachment, limit int) error {
	if len(atts) == 0 {
		return nil
	}
	if len(atts) > limit {
		return ErrLimitReached
	}
	guarded := bson.M{attachmentGuard(limit, len(atts)): bson.M{"$exists": false}}
	for k, v := range filter {
		guarded[k] = v
	}
	res, err := col.UpdateOne(ctx, guarded, bson.M{
		"$push": bson.M{"attachments": bson.M{"$each": atts}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return pkgerrors.Wrap(err, "push attachments")
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return pkgerrors.Wrap(err, "count attachment owner")
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return ErrLimitReached
}

// attachmentGuard 追加 n 个后不超过 limit 的条件：下标 limit-n 处尚无元素
func attachmentGuard(limit, n int) string {
	return fmt.Sprintf("attachments.%d", limit-n)
}

// pullAttachment 移除并返回对应附件，附件不存在时返回 nil
func pullAttachment(ctx context.Context, col *mongo.Collection, filter bson.M, filename string) (*model.Attachment, error) {
	guarded := bson.M{"attachments.filename": filename}
	for k, v := range filter {
		guarded[k] = v
	}
	var before struct {
		Attachments []model.Attachment `bson:"attachments"`
	}
	err := col.FindOneAndUpdate(ctx, guarded,
		bson.M{
			"$pull": bson.M{"attachments": bson.M{"filename": filename}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.Before).
			SetProjection(bson.M{"attachments": 1}),
	).Decode(&before)
	if err == nil {
		for i := range before.Attachments {
			if before.Attachments[i].Filename == filename {
				return &before.Attachments[i], nil
			}
		}
		return nil, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.Wrap(err, "pull attachment")
	}

	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count attachment owner")
	}
	if n == 0 {
		return nil, ErrDocumentNotFound
	}
	return nil, nil
}

func hasAttachment(ctx context.Context, col *mongo.Collection, filename string) (bool, error) {
	n, err := col.CountDocuments(ctx, bson.M{"attachments.filename": filename}, options.Count().SetLimit(1))
	if err != nil {
		return false, pkgerrors.Wrap(err, "count attachment refs")
	}
	return n > 0, nil
}

// findAttachment 按文件名查找引用该文件的附件记录，不存在时返回 nil
func findAttachment(ctx context.Context, col *mongo.Collection, filter bson.M, filename string) (*model.Attachment, error) {
	guarded := bson.M{"attachments.filename": filename}
	for k, v := range filter {
		guarded[k] = v
	}
	var doc struct {
		Attachments []model.Attachment `bson:"attachments"`
	}
	err := col.FindOne(ctx, guarded, options.FindOne().SetProjection(bson.M{"attachments": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find attachment")
	}
	for i := range doc.Attachments {
		if doc.Attachments[i].Filename == filename {
			return &doc.Attachments[i], nil
		}
	}
	return nil, nil
}
