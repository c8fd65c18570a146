package blog

import (
	"context"
	"strconv"
)

type Post struct {
	ID       int    `json:"id" bson:"id"`
	Title    string `json:"title" bson:"title"`
	Datetime string `json:"datetime" bson:"datetime"`
	Body     string `json:"body" bson:"body"`
}

// DatetimeLayout renders timestamps like "June 04, 2024 2:30:45 PM".
const DatetimeLayout = "January 02, 2006 3:04:05 PM"

// Manager persists posts for the backend. ListPosts returns posts in the
// order they were added, oldest first.
type Manager interface {
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id int) (Post, error)
	// AddPost stores post. A zero ID is replaced with max(existing)+1.
	AddPost(ctx context.Context, post Post) (Post, error)
	// ReplacePost overwrites every field of the post with post.ID.
	ReplacePost(ctx context.Context, post Post) (Post, error)
	DeletePost(ctx context.Context, id int) error
	IsReady(ctx context.Context) bool
}

// ParseID converts a route or wire id into the canonical integer form.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// NextID returns max(ids)+1, or 1 for an empty slice.
func NextID(posts []Post) int {
	next := 1
	for _, p := range posts {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}
