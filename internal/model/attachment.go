package model

import "time"

// Attachment 附件元数据，文件本体在 BlobStore 中
type Attachment struct {
	Filename     string    `bson:"filename" json:"filename"`
	OriginalName string    `bson:"original_name" json:"originalName"`
	Path         string    `bson:"path" json:"path"`
	MimeType     string    `bson:"mimetype" json:"mimetype"`
	Size         int64     `bson:"size" json:"size"`
	UploadDate   time.Time `bson:"upload_date" json:"uploadDate"`
}
