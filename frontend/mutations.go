package frontend

import (
	"context"

	"miniblog/blog"

	"github.com/pkg/errors"
)

func (s *State) timestamp() string {
	return s.Now().Format(blog.DatetimeLayout)
}

// Create stores the current draft as a new post. Its id is one past the
// largest local id; with the newest-first order that is the first post's id.
// Only a confirmed post is prepended, then the draft is cleared and the user
// sent back.
func (s *State) Create(ctx context.Context) (blog.Post, error) {
	s.mu.RLock()
	id := blog.NextID(s.posts)
	draft := s.draft
	s.mu.RUnlock()

	post := blog.Post{ID: id, Title: draft.Title, Datetime: s.timestamp(), Body: draft.Body}
	created, err := s.store.Create(ctx, post)
	if err != nil {
		s.logger.Error().Stack().Err(errors.WithStack(err)).Int("id", id).Msg("failed to create post")
		return blog.Post{}, err
	}

	s.mu.Lock()
	s.posts = append([]blog.Post{created}, s.posts...)
	s.draft = Draft{}
	s.recompute()
	s.mu.Unlock()

	s.nav.Back()
	return created, nil
}

// Edit replaces post id with the edit draft. The confirmed post takes the
// place of the local one; every other post keeps its position.
func (s *State) Edit(ctx context.Context, id int) (blog.Post, error) {
	s.mu.RLock()
	draft := s.edit
	s.mu.RUnlock()

	post := blog.Post{ID: id, Title: draft.Title, Datetime: s.timestamp(), Body: draft.Body}
	updated, err := s.store.Update(ctx, id, post)
	if err != nil {
		s.logger.Error().Stack().Err(errors.WithStack(err)).Int("id", id).Msg("failed to edit post")
		return blog.Post{}, err
	}

	s.mu.Lock()
	posts := make([]blog.Post, len(s.posts))
	for i, p := range s.posts {
		if p.ID == id {
			p = updated
		}
		posts[i] = p
	}
	s.posts = posts
	s.edit = Draft{}
	s.recompute()
	s.mu.Unlock()

	s.nav.Back()
	return updated, nil
}

// Delete removes post id remotely, then locally.
func (s *State) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int("id", id).Msg("failed to delete post")
		return err
	}

	s.mu.Lock()
	posts := make([]blog.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ID != id {
			posts = append(posts, p)
		}
	}
	s.posts = posts
	s.recompute()
	s.mu.Unlock()

	s.nav.Back()
	return nil
}
