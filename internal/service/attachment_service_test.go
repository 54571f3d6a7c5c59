package service

import (
	"Agora/internal/pkg/storage"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddBeyondLimitWritesNothing(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	owner := AttachmentOwner{Category: storage.CategoryPost, ID: post.ID}

	atts, err := e.attachments.Add(ctx, owner, []*UploadFile{
		textFile("a.txt", "a"), textFile("b.txt", "b"), textFile("c.txt", "c"),
	})
	require.NoError(t, err)
	require.Len(t, atts, 3)

	_, err = e.attachments.Add(ctx, owner, []*UploadFile{textFile("d.txt", "d")})
	assert.ErrorIs(t, err, ErrAttachmentLimit)
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := e.posts.FindByID(ctx, post.ID)
	assert.Len(t, stored.Attachments, 3)
	assert.Equal(t, 3, e.blobs.count(storage.CategoryPost))
}

func TestStageRejectsUnsupportedType(t *testing.T) {
	e := newTestEnv()
	f := textFile("setup.exe", "MZ")
	f.MimeType = "application/x-msdownload"

	_, err := e.attachments.Stage(context.Background(), storage.CategoryPost, 0, []*UploadFile{textFile("ok.txt", "ok"), f})
	assert.ErrorIs(t, err, ErrFileNotSupported)
	assert.Equal(t, 0, e.blobs.count(storage.CategoryPost))
}

func TestStageRejectsOversizedCommentFile(t *testing.T) {
	e := newTestEnv()
	f := textFile("big.txt", "x")
	f.Size = 3 << 20

	_, err := e.attachments.Stage(context.Background(), storage.CategoryComment, 0, []*UploadFile{f})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestStageRemovesWrittenFilesOnFailure(t *testing.T) {
	e := newTestEnv()
	e.blobs.failSave = true
	e.blobs.failAfter = 1

	_, err := e.attachments.Stage(context.Background(), storage.CategoryArticle, 0, []*UploadFile{
		textFile("one.txt", "1"), textFile("two.txt", "2"),
	})
	assert.ErrorIs(t, err, ErrStorageFailed)
	assert.Equal(t, 0, e.blobs.count(storage.CategoryArticle))
}

func TestAddToMissingOwner(t *testing.T) {
	e := newTestEnv()
	owner := AttachmentOwner{Category: storage.CategoryComment, ID: primitive.NewObjectID()}

	_, err := e.attachments.Add(context.Background(), owner, []*UploadFile{textFile("a.txt", "a")})
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Equal(t, 0, e.blobs.count(storage.CategoryComment))
}

func TestRemoveSucceedsWhenFileMissing(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)
	owner := AttachmentOwner{Category: storage.CategoryPost, ID: post.ID}

	atts, err := e.attachments.Add(ctx, owner, []*UploadFile{textFile("a.txt", "a")})
	require.NoError(t, err)
	require.NoError(t, e.blobs.Delete(ctx, storage.CategoryPost, atts[0].Filename))

	require.NoError(t, e.attachments.Remove(ctx, owner, atts[0].Filename))
	stored, _ := e.posts.FindByID(ctx, post.ID)
	assert.Empty(t, stored.Attachments)

	err = e.attachments.Remove(ctx, owner, atts[0].Filename)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestOpenOnlyReferencedFiles(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	post := e.newPost(1)

	atts, err := e.attachments.Add(ctx, AttachmentOwner{Category: storage.CategoryPost, ID: post.ID},
		[]*UploadFile{textFile("notes.txt", "hello")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(atts[0].Filename, "attachment_notes_"))
	assert.Equal(t, "/uploads/post-attachments/"+atts[0].Filename, atts[0].Path)

	att, rc, err := e.attachments.Open(ctx, storage.CategoryPost, atts[0].Filename)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "notes.txt", att.OriginalName)

	_, _, err = e.attachments.Open(ctx, storage.CategoryPost, "attachment_other.txt")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestDeleteAllIgnoresMissingOwner(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	a := e.newArticle(1)
	_, err := e.attachments.Add(ctx, AttachmentOwner{Category: storage.CategoryArticle, ID: a.ID},
		[]*UploadFile{textFile("a.txt", "a"), textFile("b.txt", "b")})
	require.NoError(t, err)

	require.NoError(t, e.attachments.DeleteAll(ctx, AttachmentOwner{Category: storage.CategoryArticle, ID: a.ID}))
	assert.Equal(t, 0, e.blobs.count(storage.CategoryArticle))

	err = e.attachments.DeleteAll(ctx, AttachmentOwner{Category: storage.CategoryArticle, ID: primitive.NewObjectID()})
	assert.NoError(t, err)
}

func TestAllowedMimeTypes(t *testing.T) {
	for _, m := range []string{"image/png", "application/pdf", "text/plain",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"} {
		assert.True(t, IsAllowedMimeType(m), m)
	}
	for _, m := range []string{"", "video/mp4", "application/zip"} {
		assert.False(t, IsAllowedMimeType(m), m)
	}
}
