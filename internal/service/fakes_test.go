package service

import (
	"Agora/internal/model"
	"Agora/internal/pkg/storage"
	"Agora/internal/repository"
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// contentFields 帖子与文章共有的可变字段
type contentFields struct {
	likes       *[]uint64
	comments    *[]primitive.ObjectID
	attachments *[]model.Attachment
	views       *int64
	authorID    uint64
}

type memContent[T any] struct {
	mu             sync.Mutex
	docs           map[primitive.ObjectID]*T
	fields         func(*T) contentFields
	pushCommentErr error
}

func (m *memContent[T]) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	return ok, nil
}

func (m *memContent[T]) ToggleLike(_ context.Context, id primitive.ObjectID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return false, repository.ErrDocumentNotFound
	}
	f := m.fields(doc)
	if i := slices.Index(*f.likes, userID); i >= 0 {
		*f.likes = slices.Delete(*f.likes, i, i+1)
		return false, nil
	}
	*f.likes = append(*f.likes, userID)
	return true, nil
}

func (m *memContent[T]) PushComment(_ context.Context, id, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushCommentErr != nil {
		return m.pushCommentErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	f := m.fields(doc)
	*f.comments = append(*f.comments, commentID)
	return nil
}

func (m *memContent[T]) PullComment(_ context.Context, id, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[id]; ok {
		f := m.fields(doc)
		*f.comments = slices.DeleteFunc(*f.comments, func(c primitive.ObjectID) bool { return c == commentID })
	}
	return nil
}

func (m *memContent[T]) PushAttachments(_ context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	f := m.fields(doc)
	if len(*f.attachments)+len(atts) > limit {
		return repository.ErrLimitReached
	}
	*f.attachments = append(*f.attachments, atts...)
	return nil
}

func (m *memContent[T]) PullAttachment(_ context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	return pullMemAttachment(m.fields(doc).attachments, filename), nil
}

func (m *memContent[T]) IncViewCount(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[id]; ok {
		*m.fields(doc).views++
	}
	return nil
}

func (m *memContent[T]) GetOwner(_ context.Context, id primitive.ObjectID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return 0, repository.ErrDocumentNotFound
	}
	return m.fields(doc).authorID, nil
}

func (m *memContent[T]) HasAttachment(ctx context.Context, filename string) (bool, error) {
	att, err := m.FindAttachment(ctx, filename)
	return att != nil, err
}

func (m *memContent[T]) FindAttachment(_ context.Context, filename string) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		for _, att := range *m.fields(doc).attachments {
			if att.Filename == filename {
				found := att
				return &found, nil
			}
		}
	}
	return nil, nil
}

func pullMemAttachment(atts *[]model.Attachment, filename string) *model.Attachment {
	for i, att := range *atts {
		if att.Filename == filename {
			*atts = slices.Delete(*atts, i, i+1)
			return &att
		}
	}
	return nil
}

type memPostRepo struct {
	*memContent[model.Post]
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{memContent: &memContent[model.Post]{
		docs: make(map[primitive.ObjectID]*model.Post),
		fields: func(p *model.Post) contentFields {
			return contentFields{&p.Likes, &p.Comments, &p.Attachments, &p.ViewCount, p.AuthorID}
		},
	}}
}

func (m *memPostRepo) Create(_ context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt, post.UpdatedAt = time.Now(), time.Now()
	stored := clonePost(post)
	m.docs[post.ID] = stored
	return nil
}

func (m *memPostRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.docs[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (m *memPostRepo) Update(_ context.Context, id primitive.ObjectID, patch *repository.PostPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Categories != nil {
		p.Categories = patch.Categories
	}
	if patch.Tags != nil {
		p.Tags = patch.Tags
	}
	if patch.IsSolved != nil {
		p.IsSolved = *patch.IsSolved
	}
	return nil
}

func (m *memPostRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	delete(m.docs, id)
	return ok, nil
}

func (m *memPostRepo) SetAIResponseIfEmpty(_ context.Context, id primitive.ObjectID, text string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok || p.HasAIResponse() {
		return false, nil
	}
	p.AIResponse = &text
	p.AIResponseCreatedAt = &at
	return true, nil
}

func (m *memPostRepo) ClearAIResponse(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	p.AIResponse = nil
	p.AIResponseCreatedAt = nil
	return nil
}

func (m *memPostRepo) put(p *model.Post) *model.Post {
	_ = m.Create(context.Background(), p)
	return p
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Likes = slices.Clone(p.Likes)
	c.Comments = slices.Clone(p.Comments)
	c.Attachments = slices.Clone(p.Attachments)
	c.Tags = slices.Clone(p.Tags)
	c.Categories = slices.Clone(p.Categories)
	return &c
}

type memArticleRepo struct {
	*memContent[model.Article]
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{memContent: &memContent[model.Article]{
		docs: make(map[primitive.ObjectID]*model.Article),
		fields: func(a *model.Article) contentFields {
			return contentFields{&a.Likes, &a.Comments, &a.Attachments, &a.ViewCount, a.AuthorID}
		},
	}}
}

func (m *memArticleRepo) Create(_ context.Context, article *model.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if article.ID.IsZero() {
		article.ID = primitive.NewObjectID()
	}
	c := *article
	c.Attachments = slices.Clone(article.Attachments)
	m.docs[article.ID] = &c
	return nil
}

func (m *memArticleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.docs[id]; ok {
		c := *a
		c.Likes = slices.Clone(a.Likes)
		c.Comments = slices.Clone(a.Comments)
		c.Attachments = slices.Clone(a.Attachments)
		return &c, nil
	}
	return nil, nil
}

func (m *memArticleRepo) Update(_ context.Context, id primitive.ObjectID, patch *repository.ArticlePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.docs[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Content != nil {
		a.Content = *patch.Content
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	if patch.Tags != nil {
		a.Tags = patch.Tags
	}
	return nil
}

func (m *memArticleRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	delete(m.docs, id)
	return ok, nil
}

type memCommentRepo struct {
	mu    sync.Mutex
	docs  map[primitive.ObjectID]*model.Comment
	order []primitive.ObjectID
	seq   int
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{docs: make(map[primitive.ObjectID]*model.Comment)}
}

func cloneComment(c *model.Comment) *model.Comment {
	out := *c
	out.Likes = slices.Clone(c.Likes)
	out.Attachments = slices.Clone(c.Attachments)
	return &out
}

func (m *memCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	m.seq++
	comment.CreatedAt = time.Unix(int64(m.seq), 0)
	comment.UpdatedAt = comment.CreatedAt
	if comment.State == "" {
		comment.State = model.CommentActive
	}
	m.docs[comment.ID] = cloneComment(comment)
	m.order = append(m.order, comment.ID)
	return nil
}

func (m *memCommentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.docs[id]; ok {
		return cloneComment(c), nil
	}
	return nil, nil
}

func (m *memCommentRepo) filter(keep func(*model.Comment) bool) []*model.Comment {
	out := make([]*model.Comment, 0)
	for _, id := range m.order {
		if c, ok := m.docs[id]; ok && keep(c) {
			out = append(out, cloneComment(c))
		}
	}
	return out
}

func (m *memCommentRepo) ListTopLevel(_ context.Context, ref model.ContentRef, skip, limit int64) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filter(func(c *model.Comment) bool { return c.Parent == ref && c.ParentCommentID == nil })
	if skip >= int64(len(all)) {
		return []*model.Comment{}, nil
	}
	end := min(skip+limit, int64(len(all)))
	return all[skip:end], nil
}

func (m *memCommentRepo) CountTopLevel(_ context.Context, ref model.ContentRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filter(func(c *model.Comment) bool { return c.Parent == ref && c.ParentCommentID == nil }))), nil
}

func (m *memCommentRepo) ListReplies(_ context.Context, parentIDs []primitive.ObjectID) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(c *model.Comment) bool {
		return c.ParentCommentID != nil && slices.Contains(parentIDs, *c.ParentCommentID)
	}), nil
}

func (m *memCommentRepo) ListByParent(_ context.Context, ref model.ContentRef) ([]*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(c *model.Comment) bool { return c.Parent == ref }), nil
}

func (m *memCommentRepo) DeleteByParent(_ context.Context, ref model.ContentRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.docs {
		if c.Parent == ref {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

func (m *memCommentRepo) SoftDelete(_ context.Context, id primitive.ObjectID, tombstone string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok || c.IsDeleted() {
		return nil, nil
	}
	before := cloneComment(c)
	c.Content = tombstone
	c.Attachments = []model.Attachment{}
	c.State = model.CommentDeleted
	return before, nil
}

func (m *memCommentRepo) active(id primitive.ObjectID) (*model.Comment, error) {
	c, ok := m.docs[id]
	if !ok || c.IsDeleted() {
		return nil, repository.ErrDocumentNotFound
	}
	return c, nil
}

func (m *memCommentRepo) UpdateContent(_ context.Context, id primitive.ObjectID, content string, atts []model.Attachment, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.active(id)
	if err != nil {
		return err
	}
	if len(c.Attachments)+len(atts) > limit {
		return repository.ErrLimitReached
	}
	c.Content = content
	c.Attachments = append(c.Attachments, atts...)
	return nil
}

func (m *memCommentRepo) ToggleLike(_ context.Context, id primitive.ObjectID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.active(id)
	if err != nil {
		return false, err
	}
	if i := slices.Index(c.Likes, userID); i >= 0 {
		c.Likes = slices.Delete(c.Likes, i, i+1)
		return false, nil
	}
	c.Likes = append(c.Likes, userID)
	return true, nil
}

func (m *memCommentRepo) PushAttachments(_ context.Context, id primitive.ObjectID, atts []model.Attachment, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.active(id)
	if err != nil {
		return err
	}
	if len(c.Attachments)+len(atts) > limit {
		return repository.ErrLimitReached
	}
	c.Attachments = append(c.Attachments, atts...)
	return nil
}

func (m *memCommentRepo) PullAttachment(_ context.Context, id primitive.ObjectID, filename string) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.active(id)
	if err != nil {
		return nil, err
	}
	return pullMemAttachment(&c.Attachments, filename), nil
}

func (m *memCommentRepo) HasAIComment(_ context.Context, ref model.ContentRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filter(func(c *model.Comment) bool { return c.Parent == ref && c.IsAIGenerated })) > 0, nil
}

func (m *memCommentRepo) HasAttachment(ctx context.Context, filename string) (bool, error) {
	att, err := m.FindAttachment(ctx, filename)
	return att != nil, err
}

func (m *memCommentRepo) FindAttachment(_ context.Context, filename string) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.docs {
		for _, att := range c.Attachments {
			if att.Filename == filename {
				found := att
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (m *memCommentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memCommentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type memSavedRepo struct {
	mu    sync.Mutex
	items map[uint64]*model.SavedItems
}

func newMemSavedRepo() *memSavedRepo {
	return &memSavedRepo{items: make(map[uint64]*model.SavedItems)}
}

func (m *memSavedRepo) list(items *model.SavedItems, kind model.ContentKind) *[]primitive.ObjectID {
	if kind == model.KindArticle {
		return &items.Articles
	}
	return &items.Posts
}

func (m *memSavedRepo) Toggle(_ context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[userID]
	if !ok {
		items = &model.SavedItems{UserID: userID}
		m.items[userID] = items
	}
	l := m.list(items, kind)
	if i := slices.Index(*l, itemID); i >= 0 {
		*l = slices.Delete(*l, i, i+1)
		return false, nil
	}
	*l = append(*l, itemID)
	return true, nil
}

func (m *memSavedRepo) IsSaved(_ context.Context, userID uint64, kind model.ContentKind, itemID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.items[userID]
	if !ok {
		return false, nil
	}
	return slices.Contains(*m.list(items, kind), itemID), nil
}

func (m *memSavedRepo) Get(_ context.Context, userID uint64) (*model.SavedItems, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &model.SavedItems{UserID: userID, Posts: []primitive.ObjectID{}, Articles: []primitive.ObjectID{}}
	if items, ok := m.items[userID]; ok {
		out.Posts = append(out.Posts, items.Posts...)
		out.Articles = append(out.Articles, items.Articles...)
	}
	return out, nil
}

func (m *memSavedRepo) RemoveEverywhere(_ context.Context, kind model.ContentKind, itemID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, items := range m.items {
		l := m.list(items, kind)
		*l = slices.DeleteFunc(*l, func(id primitive.ObjectID) bool { return id == itemID })
	}
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uint64]*model.User
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	m := &memUserRepo{users: make(map[uint64]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memUserRepo) GetUserByIds(_ context.Context, ids []uint64) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUser
		}
	}
	if user.ID == 0 {
		user.ID = uint64(1000 + len(m.users))
	}
	m.users[user.ID] = user
	return nil
}

// memBlobStore 内存文件存储，failSave 为 true 时在写入第 failAfter+1 个文件时失败
type memBlobStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	failSave  bool
	failAfter int
	saves     int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{files: make(map[string][]byte)}
}

func blobKey(c storage.Category, name string) string {
	return string(c) + "/" + name
}

func (m *memBlobStore) Save(_ context.Context, c storage.Category, name string, r io.Reader, _ int64, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave && m.saves >= m.failAfter {
		return "", errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saves++
	m.files[blobKey(c, name)] = data
	return storage.PublicPath(c, name), nil
}

func (m *memBlobStore) Delete(_ context.Context, c storage.Category, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[blobKey(c, name)]; !ok {
		return errors.New("no such file")
	}
	delete(m.files, blobKey(c, name))
	return nil
}

func (m *memBlobStore) Open(_ context.Context, c storage.Category, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[blobKey(c, name)]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) List(_ context.Context, c storage.Category) ([]storage.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := string(c) + "/"
	out := make([]storage.BlobInfo, 0)
	for k, v := range m.files {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, storage.BlobInfo{Name: k[len(prefix):], Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memBlobStore) count(c storage.Category) int {
	list, _ := m.List(context.Background(), c)
	return len(list)
}

func (m *memBlobStore) has(c storage.Category, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[blobKey(c, name)]
	return ok
}

// fakeGenerator 可阻塞的生成器，用于并发测试
type fakeGenerator struct {
	calls   atomic.Int32
	text    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.calls.Add(1)
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeDispatcher struct {
	mu  sync.Mutex
	ids []primitive.ObjectID
}

func (d *fakeDispatcher) Dispatch(_ context.Context, postID primitive.ObjectID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, postID)
	return true
}

func textFile(name, content string) *UploadFile {
	return &UploadFile{
		OriginalName: name,
		MimeType:     "text/plain",
		Size:         int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}
