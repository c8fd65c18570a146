package webui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	h := NewHistory("/")
	assert.Equal(t, "/", h.Location())

	h.Visit("/")
	h.Visit("/post/2")
	h.Visit("/edit/2")
	h.Visit("/edit/2")
	assert.Equal(t, "/edit/2", h.Location())

	h.Back()
	assert.Equal(t, "/post/2", h.Location())
	h.Back()
	assert.Equal(t, "/", h.Location())
	h.Back()
	assert.Equal(t, "/", h.Location())
}
