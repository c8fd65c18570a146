// Package frontend holds the client-side state of the blog: the local,
// newest-first copy of the remote posts, the search text with its derived
// results, the form drafts, and the mutations that keep them in step with
// the remote store.
package frontend

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"miniblog/blog"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

// Store is the remote side of the posts. postsapi.Client implements it.
type Store interface {
	ListAll(ctx context.Context) ([]blog.Post, error)
	Create(ctx context.Context, post blog.Post) (blog.Post, error)
	Update(ctx context.Context, id int, post blog.Post) (blog.Post, error)
	Delete(ctx context.Context, id int) error
}

// Navigator moves the user after a completed mutation.
type Navigator interface {
	Back()
}

// Draft is the content of a post form.
type Draft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// State is safe for concurrent use. Remote calls run without the lock held;
// their confirmed results are applied under it.
type State struct {
	store  Store
	nav    Navigator
	logger zerolog.Logger

	// Now is the wall clock used to stamp created and edited posts.
	Now func() time.Time

	mu      sync.RWMutex
	posts   []blog.Post // newest first
	search  string
	results []blog.Post
	draft   Draft
	edit    Draft
}

func New(store Store, nav Navigator, logger zerolog.Logger) *State {
	return &State{
		store:   store,
		nav:     nav,
		logger:  logger,
		Now:     time.Now,
		posts:   []blog.Post{},
		results: []blog.Post{},
	}
}

// recompute rebuilds the search results. Callers hold mu.
func (s *State) recompute() {
	fold := cases.Fold()
	needle := fold.String(s.search)
	results := make([]blog.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if strings.Contains(fold.String(p.Title), needle) || strings.Contains(fold.String(p.Body), needle) {
			results = append(results, p)
		}
	}
	s.results = results
}

// logFailure reports a failed remote call. Rejections carry the response,
// transport failures only the message.
func (s *State) logFailure(err error, msg string) {
	var remote *blog.RemoteError
	if errors.As(err, &remote) {
		s.logger.Error().
			Str("op", remote.Op).
			Int("status", remote.StatusCode).
			Bytes("body", remote.Body).
			Interface("headers", remote.Header).
			Msg(msg)
		return
	}
	s.logger.Error().Err(err).Msg(msg)
}

// Load replaces the local posts with the remote ones, newest first. On
// failure the collection is left as it was.
func (s *State) Load(ctx context.Context) error {
	posts, err := s.store.ListAll(ctx)
	if err != nil {
		s.logFailure(err, "failed to load posts")
		return err
	}
	slices.Reverse(posts)
	if posts == nil {
		posts = []blog.Post{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
	s.recompute()
	s.logger.Debug().Int("count", len(posts)).Msg("posts loaded")
	return nil
}

func (s *State) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
	s.recompute()
}

func (s *State) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SearchResults are the posts whose title or body contains the search text,
// ignoring case, newest first.
func (s *State) SearchResults() []blog.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

func (s *State) Posts() []blog.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.posts)
}

func (s *State) Post(id int) (blog.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.posts, func(p blog.Post) bool { return p.ID == id })
	if i < 0 {
		return blog.Post{}, false
	}
	return s.posts[i], true
}

func (s *State) SetPostTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = title
}

func (s *State) SetPostBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Body = body
}

func (s *State) SetEditTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.Title = title
}

func (s *State) SetEditBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit.Body = body
}

func (s *State) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

func (s *State) EditDraft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edit
}

// PrepareEdit seeds the edit draft with the stored post.
func (s *State) PrepareEdit(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.posts, func(p blog.Post) bool { return p.ID == id })
	if i < 0 {
		return errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	s.edit = Draft{Title: s.posts[i].Title, Body: s.posts[i].Body}
	return nil
}
