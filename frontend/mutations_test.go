package frontend

import (
	"errors"

	"miniblog/blog"
)

func (s *StateSuite) TestCreate_AssignsNextIDAndPrepends() {
	s.store.posts = []blog.Post{{ID: 4}, {ID: 5}}
	s.load()
	s.state.SetPostTitle("Hello")
	s.state.SetPostBody("World")

	created, err := s.state.Create(ctx)
	s.Require().NoError(err)
	s.Require().Equal(blog.Post{ID: 6, Title: "Hello", Datetime: "June 04, 2024 2:30:45 PM", Body: "World"}, created)
	s.Require().Equal([]blog.Post{created}, s.store.created)

	posts := s.state.Posts()
	s.Require().Equal(created, posts[0])
	s.Require().Equal([]int{6, 5, 4}, ids(posts))
	s.Require().Equal(Draft{}, s.state.Draft())
	s.Require().Equal(1, s.nav.backs)
}

func (s *StateSuite) TestCreate_IntoEmptyCollection() {
	s.store.posts = nil
	s.load()

	created, err := s.state.Create(ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, created.ID)
	s.Require().Equal("", created.Title)
	s.Require().Equal("", created.Body)
}

func (s *StateSuite) TestCreate_UsesLargestIDEvenIfOrderDrifts() {
	s.store.posts = []blog.Post{{ID: 9}, {ID: 2}}
	s.load()

	created, err := s.state.Create(ctx)
	s.Require().NoError(err)
	s.Require().Equal(10, created.ID)
}

func (s *StateSuite) TestCreate_FailureKeepsStateAndStays() {
	s.load()
	before := s.state.Posts()
	s.state.SetPostTitle("keep me")
	s.store.err = &blog.TransportError{Op: "create post", Err: errors.New("network down")}

	_, err := s.state.Create(ctx)
	s.Require().Error(err)
	s.Require().Equal(before, s.state.Posts())
	s.Require().Equal("keep me", s.state.Draft().Title)
	s.Require().Zero(s.nav.backs)
	s.Require().Contains(s.logs.String(), "network down")
	s.Require().Contains(s.logs.String(), "stack")
}

func (s *StateSuite) TestEdit_ReplacesOnlyMatchingPost() {
	s.load()
	before := s.state.Posts()
	s.state.SetEditTitle("T")
	s.state.SetEditBody("new body")

	updated, err := s.state.Edit(ctx, 2)
	s.Require().NoError(err)
	s.Require().Equal(blog.Post{ID: 2, Title: "T", Datetime: "June 04, 2024 2:30:45 PM", Body: "new body"}, updated)

	after := s.state.Posts()
	s.Require().Len(after, len(before))
	s.Require().Equal(before[0], after[0])
	s.Require().Equal(updated, after[1])
	s.Require().Equal(before[2], after[2])
	s.Require().Equal(Draft{}, s.state.EditDraft())
	s.Require().Equal(1, s.nav.backs)
}

func (s *StateSuite) TestEdit_FailureKeepsStateAndStays() {
	s.load()
	before := s.state.Posts()
	s.state.SetEditTitle("draft")
	s.store.err = &blog.RemoteError{Op: "update post", StatusCode: 404}

	_, err := s.state.Edit(ctx, 2)
	s.Require().ErrorIs(err, blog.ErrNotFound)
	s.Require().Equal(before, s.state.Posts())
	s.Require().Equal("draft", s.state.EditDraft().Title)
	s.Require().Zero(s.nav.backs)
}

func (s *StateSuite) TestDelete_RemovesByID() {
	s.load()
	s.Require().NoError(s.state.Delete(ctx, 2))
	s.Require().Equal([]int{3, 1}, ids(s.state.Posts()))
	s.Require().Equal([]int{2}, s.store.deleted)
	s.Require().Equal(1, s.nav.backs)
}

func (s *StateSuite) TestDelete_UnknownIDLeavesLength() {
	s.load()
	s.Require().NoError(s.state.Delete(ctx, 42))
	s.Require().Len(s.state.Posts(), 3)
}

func (s *StateSuite) TestDelete_FailureKeepsState() {
	s.load()
	s.store.err = &blog.TransportError{Op: "delete post", Err: errors.New("timeout")}
	s.Require().Error(s.state.Delete(ctx, 2))
	s.Require().Len(s.state.Posts(), 3)
	s.Require().Zero(s.nav.backs)
}
