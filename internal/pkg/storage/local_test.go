package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	p, err := store.Save(ctx, CategoryPost, "a.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/post-attachments/a.txt", p)

	rc, err := store.Open(ctx, CategoryPost, "a.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(data))

	list, err := store.List(ctx, CategoryPost)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.txt", list[0].Name)

	require.NoError(t, store.Delete(ctx, CategoryPost, "a.txt"))
	_, err = store.Open(ctx, CategoryPost, "a.txt")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	// 重复删除不报错
	assert.NoError(t, store.Delete(ctx, CategoryPost, "a.txt"))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(ctx, CategoryPost, "../x.txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, store.Delete(ctx, CategoryPost, "a/b"), ErrInvalidName)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestLocalStoreRemovesPartialFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	_, err = store.Save(ctx, CategoryComment, "broken.bin", failingReader{}, 10, "application/pdf")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, CategoryComment.Dir(), "broken.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStoreDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(ctx, CategoryArticle, "dup.txt", strings.NewReader("one"), 3, "text/plain")
	require.NoError(t, err)
	_, err = store.Save(ctx, CategoryArticle, "dup.txt", strings.NewReader("two"), 3, "text/plain")
	assert.Error(t, err)
}
