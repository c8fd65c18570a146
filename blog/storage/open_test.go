package storage

import (
	"context"
	"miniblog/blog"
	"miniblog/config"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_LocalModes(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]config.Storage{
		"inmemory": {Mode: "inmemory"},
		"file":     {Mode: "file", DBFile: filepath.Join(dir, "db.json")},
		"sql":      {Mode: "sql", SQLDriver: "sqlite3", SQLDSN: filepath.Join(dir, "posts.db")},
		"badger":   {Mode: "badger", BadgerPath: filepath.Join(dir, "badger")},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			manager, release, err := Open(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			defer release()

			assert.True(t, manager.IsReady(ctx))
			created, err := manager.AddPost(ctx, blog.Post{Title: "hello", Body: "world"})
			require.NoError(t, err)
			assert.Equal(t, 1, created.ID)

			posts, err := manager.ListPosts(ctx)
			require.NoError(t, err)
			assert.Equal(t, []blog.Post{created}, posts)
		})
	}
}

func TestOpen_UnknownMode(t *testing.T) {
	_, release, err := Open(context.Background(), config.Storage{Mode: "floppy"}, zerolog.Nop())
	require.ErrorIs(t, err, ErrUnknownMode)
	release()
}
