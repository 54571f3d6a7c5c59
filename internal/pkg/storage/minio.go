package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinioStore 对象存储实现，key 为 <category>-attachments/<name>
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

func objectKey(c Category, name string) string {
	return c.Dir() + "/" + name
}

func (s *MinioStore) Save(ctx context.Context, c Category, name string, r io.Reader, size int64, contentType string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(c, name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return PublicPath(c, name), nil
}

func (s *MinioStore) Delete(ctx context.Context, c Category, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(c, name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *MinioStore) Open(ctx context.Context, c Category, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(c, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 是惰性的，Stat 才会暴露 NoSuchKey
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *MinioStore) List(ctx context.Context, c Category) ([]BlobInfo, error) {
	var list []BlobInfo
	prefix := c.Dir() + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		list = append(list, BlobInfo{Name: obj.Key[len(prefix):], Size: obj.Size, ModTime: obj.LastModified})
	}
	return list, nil
}
