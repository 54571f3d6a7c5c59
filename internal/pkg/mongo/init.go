package mongo

import (
	"Agora/internal/api/config"
	"Agora/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PostCollection       = "posts"
	ArticleCollection    = "articles"
	CommentCollection    = "comments"
	SavedItemsCollection = "saved_items"
)

// InitMongo 建立连接并返回 Database 引用，同时初始化索引
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URL).
		SetMonitor(logger.NewMongoMonitor()),
	)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	if err = EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	log.Info("MongoDB initialized successfully", "db", cfg.Database)
	return db, nil
}

// EnsureIndexes 创建评论列表与清理任务依赖的索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CommentCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "parent_ref.kind", Value: 1},
			{Key: "parent_ref.id", Value: 1},
			{Key: "parent_comment_id", Value: 1},
			{Key: "created_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "parent_comment_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "attachments.filename", Value: 1}}},
	})
	if err != nil {
		return err
	}

	for _, name := range []string{PostCollection, ArticleCollection} {
		_, err = db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "attachments.filename", Value: 1}}},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
