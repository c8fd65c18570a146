package webui

import (
	"miniblog/blog"
	"miniblog/frontend"
)

// Page wraps every view with the header and nav state.
type Page struct {
	Title  string `json:"title"`
	Path   string `json:"path"`
	Search string `json:"search"`
	View   string `json:"view"`
	Data   any    `json:"data,omitempty"`
}

type HomeView struct {
	Posts []blog.Post `json:"posts"`
}

type NewPostView struct {
	Draft frontend.Draft `json:"draft"`
}

type PostView struct {
	Post     blog.Post `json:"post"`
	BodyHTML string    `json:"bodyHtml"`
}

type EditView struct {
	Post  blog.Post      `json:"post"`
	Draft frontend.Draft `json:"draft"`
}

type MessageView struct {
	Heading string `json:"heading"`
	Message string `json:"message"`
}
