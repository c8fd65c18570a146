package inmemoryimpl

import (
	"context"
	"miniblog/blog"
	"sync"

	"github.com/pkg/errors"
)

type InMemoryManager struct {
	mu    sync.RWMutex
	posts *blog.Collection[int, blog.Post]
}

// NewInMemoryManager starts with seed in order. Seed posts with a zero ID get
// the next free one; when two seed posts share an ID the first one wins and
// the later one is skipped.
func NewInMemoryManager(seed ...blog.Post) *InMemoryManager {
	manager := &InMemoryManager{posts: blog.NewCollection[int, blog.Post]()}
	for _, post := range seed {
		_, _ = manager.add(post)
	}
	return manager
}

func (manager *InMemoryManager) ListPosts(_ context.Context) ([]blog.Post, error) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.posts.Values(blog.ByInsertion), nil
}

func (manager *InMemoryManager) GetPost(_ context.Context, id int) (blog.Post, error) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	post, ok := manager.posts.At(id)
	if !ok {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	return post, nil
}

func (manager *InMemoryManager) AddPost(_ context.Context, post blog.Post) (blog.Post, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.add(post)
}

func (manager *InMemoryManager) add(post blog.Post) (blog.Post, error) {
	if post.ID == 0 {
		post.ID = 1
		if max, ok := manager.posts.MaxKey(); ok {
			post.ID = max + 1
		}
	}
	if err := manager.posts.Add(post.ID, post); err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrDuplicateID, "post %d", post.ID)
	}
	return post, nil
}

func (manager *InMemoryManager) ReplacePost(_ context.Context, post blog.Post) (blog.Post, error) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if !manager.posts.Replace(post.ID, post) {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", post.ID)
	}
	return post, nil
}

func (manager *InMemoryManager) DeletePost(_ context.Context, id int) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if !manager.posts.Remove(id) {
		return errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	return nil
}

func (manager *InMemoryManager) IsReady(_ context.Context) bool {
	return true
}
