package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// SavedItems 用户收藏，文档 _id 即用户 id
type SavedItems struct {
	UserID   uint64               `bson:"_id" json:"userId"`
	Posts    []primitive.ObjectID `bson:"posts" json:"posts"`
	Articles []primitive.ObjectID `bson:"articles" json:"articles"`
}
