// Package managertest holds the behaviour every blog.Manager must share.
package managertest

import (
	"context"
	"fmt"

	"miniblog/blog"

	"github.com/stretchr/testify/suite"
)

var ctx = context.Background()

// ManagerSuite runs against a fresh manager per test. Embed it and set
// NewManager, or construct it with New.
type ManagerSuite struct {
	suite.Suite

	NewManager func() blog.Manager
	manager    blog.Manager
}

func New(factory func() blog.Manager) *ManagerSuite {
	return &ManagerSuite{NewManager: factory}
}

func (s *ManagerSuite) SetupTest() {
	s.manager = s.NewManager()
}

func (s *ManagerSuite) addNPosts(n int) []blog.Post {
	var posts []blog.Post
	for i := 1; i <= n; i++ {
		p, err := s.manager.AddPost(ctx, blog.Post{
			ID:       i,
			Title:    fmt.Sprintf("Post %d", i),
			Datetime: "June 04, 2024 2:30:45 PM",
			Body:     fmt.Sprintf("This is post number %d", i),
		})
		s.Require().NoError(err)
		posts = append(posts, p)
	}
	return posts
}

func (s *ManagerSuite) TestIsReady() {
	s.Require().True(s.manager.IsReady(ctx))
}

func (s *ManagerSuite) TestListPosts_Empty() {
	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Empty(posts)
}

func (s *ManagerSuite) TestListPosts_OldestFirst() {
	created := s.addNPosts(4)
	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal(created, posts)
}

func (s *ManagerSuite) TestListPosts_InsertionOrderNotIDOrder() {
	for _, id := range []int{7, 2, 5} {
		_, err := s.manager.AddPost(ctx, blog.Post{ID: id, Title: fmt.Sprint(id)})
		s.Require().NoError(err)
	}
	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Len(posts, 3)
	s.Require().Equal(7, posts[0].ID)
	s.Require().Equal(2, posts[1].ID)
	s.Require().Equal(5, posts[2].ID)
}

func (s *ManagerSuite) TestAddPost_AssignsNextID() {
	first, err := s.manager.AddPost(ctx, blog.Post{Title: "first"})
	s.Require().NoError(err)
	s.Require().Equal(1, first.ID)

	_, err = s.manager.AddPost(ctx, blog.Post{ID: 9, Title: "explicit"})
	s.Require().NoError(err)

	next, err := s.manager.AddPost(ctx, blog.Post{Title: "next"})
	s.Require().NoError(err)
	s.Require().Equal(10, next.ID)
}

func (s *ManagerSuite) TestAddPost_RejectsDuplicateID() {
	s.addNPosts(2)
	_, err := s.manager.AddPost(ctx, blog.Post{ID: 2, Title: "dup"})
	s.Require().ErrorIs(err, blog.ErrDuplicateID)

	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Len(posts, 2)
}

func (s *ManagerSuite) TestGetPost() {
	created := s.addNPosts(3)
	got, err := s.manager.GetPost(ctx, 2)
	s.Require().NoError(err)
	s.Require().Equal(created[1], got)

	_, err = s.manager.GetPost(ctx, 42)
	s.Require().ErrorIs(err, blog.ErrNotFound)
}

func (s *ManagerSuite) TestReplacePost() {
	created := s.addNPosts(3)
	updated := blog.Post{ID: 2, Title: "T", Datetime: "July 01, 2024 9:00:00 AM"}
	got, err := s.manager.ReplacePost(ctx, updated)
	s.Require().NoError(err)
	s.Require().Equal(updated, got)

	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]blog.Post{created[0], updated, created[2]}, posts)
}

func (s *ManagerSuite) TestReplacePost_Missing() {
	s.addNPosts(1)
	_, err := s.manager.ReplacePost(ctx, blog.Post{ID: 5, Title: "ghost"})
	s.Require().ErrorIs(err, blog.ErrNotFound)
}

func (s *ManagerSuite) TestDeletePost() {
	created := s.addNPosts(3)
	s.Require().NoError(s.manager.DeletePost(ctx, 2))

	posts, err := s.manager.ListPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]blog.Post{created[0], created[2]}, posts)

	s.Require().ErrorIs(s.manager.DeletePost(ctx, 2), blog.ErrNotFound)
}
