package fileimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"miniblog/blog"
	"miniblog/blog/managertest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newManager(t *testing.T) (*FileManager, string) {
	path := filepath.Join(t.TempDir(), "db.json")
	manager, err := NewFileManager(path, zerolog.Nop())
	require.NoError(t, err)
	return manager, path
}

func TestFileManager(t *testing.T) {
	suite.Run(t, managertest.New(func() blog.Manager {
		manager, _ := newManager(t)
		return manager
	}))
}

func TestFileManager_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	manager, path := newManager(t)
	_, err := manager.AddPost(ctx, blog.Post{Title: "first", Body: "kept on disk"})
	require.NoError(t, err)

	reopened, err := NewFileManager(path, zerolog.Nop())
	require.NoError(t, err)
	posts, err := reopened.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "kept on disk", posts[0].Body)
}

func TestFileManager_ReadsExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "posts": [
    {"id": 1, "title": "My First Blog Post", "datetime": "July 01, 2021 11:17:36 AM", "body": "Made a video about Tesla Q1 results"},
    {"id": 2, "title": "My 2nd Post", "datetime": "July 01, 2021 11:17:36 AM", "body": "I attended a DeFi blockchain event"}
  ]
}`), 0644))

	manager, err := NewFileManager(path, zerolog.Nop())
	require.NoError(t, err)
	posts, err := manager.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "My 2nd Post", posts[1].Title)
}

func TestFileManager_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"posts": [`), 0644))

	_, err := NewFileManager(path, zerolog.Nop())
	require.ErrorIs(t, err, blog.ErrStorage)
}

func TestFileManager_WatchReloadsExternalEdits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, path := newManager(t)
	require.NoError(t, manager.Watch(ctx))

	raw, err := json.Marshal(database{Posts: []blog.Post{{ID: 4, Title: "edited by hand"}}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	require.Eventually(t, func() bool {
		post, err := manager.GetPost(ctx, 4)
		return err == nil && post.Title == "edited by hand"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFileManager_WatchKeepsConcurrentWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, path := newManager(t)
	require.NoError(t, manager.Watch(ctx))

	const writers, perWriter = 4, 75
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := manager.AddPost(ctx, blog.Post{Title: "concurrent", Body: fmt.Sprintf("%d-%d", w, i)})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
	// let the watcher drain the events of the last writes
	time.Sleep(200 * time.Millisecond)

	posts, err := manager.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, writers*perWriter)

	seen := map[int]bool{}
	for _, p := range posts {
		require.False(t, seen[p.ID], "id %d assigned twice", p.ID)
		seen[p.ID] = true
	}

	reopened, err := NewFileManager(path, zerolog.Nop())
	require.NoError(t, err)
	onDisk, err := reopened.ListPosts(ctx)
	require.NoError(t, err)
	require.Equal(t, posts, onDisk)
}
