package kafka

import (
	"errors"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AugmentMessage AI 回答任务消息
type AugmentMessage struct {
	PostID  string `json:"post_id"`
	TraceID string `json:"trace_id,omitempty"`
}

var ErrBadAugmentMessage = errors.New("bad augment message")

func encodeAugmentMessage(postID primitive.ObjectID, traceID string) ([]byte, error) {
	return json.Marshal(&AugmentMessage{PostID: postID.Hex(), TraceID: traceID})
}

func decodeAugmentMessage(value []byte) (primitive.ObjectID, string, error) {
	var m AugmentMessage
	if err := json.Unmarshal(value, &m); err != nil {
		return primitive.NilObjectID, "", errors.Join(ErrBadAugmentMessage, err)
	}
	oid, err := primitive.ObjectIDFromHex(m.PostID)
	if err != nil {
		return primitive.NilObjectID, "", errors.Join(ErrBadAugmentMessage, err)
	}
	return oid, m.TraceID, nil
}
