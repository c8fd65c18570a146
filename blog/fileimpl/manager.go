// Package fileimpl keeps posts in a json-server style db.json file:
//
//	{"posts": [{"id": 1, "title": "...", "datetime": "...", "body": "..."}]}
//
// The file is rewritten after every change and reloaded when edited by hand.
package fileimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"miniblog/blog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type database struct {
	Posts []blog.Post `json:"posts"`
}

type FileManager struct {
	mu     sync.RWMutex
	path   string
	posts  []blog.Post
	logger zerolog.Logger
	// written is the last content flush put on disk.
	written []byte
}

// NewFileManager loads path, creating an empty database when it is missing.
func NewFileManager(path string, logger zerolog.Logger) (*FileManager, error) {
	m := &FileManager{
		path:   path,
		posts:  []blog.Post{},
		logger: logger.With().Str("db_file", path).Logger(),
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(blog.ErrStorage, "create %s: %v", filepath.Dir(path), err)
		}
		if err := m.flush(); err != nil {
			return nil, err
		}
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// reload replaces the posts with the file content unless the file still
// holds what this manager last wrote.
func (m *FileManager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		return errors.Wrapf(blog.ErrStorage, "read %s: %v", m.path, err)
	}
	if m.written != nil && bytes.Equal(raw, m.written) {
		return nil
	}
	var db database
	if err := json.Unmarshal(raw, &db); err != nil {
		return errors.Wrapf(blog.ErrStorage, "decode %s: %v", m.path, err)
	}
	if db.Posts == nil {
		db.Posts = []blog.Post{}
	}
	m.posts = db.Posts
	m.written = raw
	return nil
}

// flush writes the current posts via a temp file and rename. Callers hold mu
// or own m exclusively.
func (m *FileManager) flush() error {
	posts := m.posts
	if posts == nil {
		posts = []blog.Post{}
	}
	raw, err := json.MarshalIndent(database{Posts: posts}, "", "  ")
	if err != nil {
		return errors.Wrapf(blog.ErrStorage, "encode: %v", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".db-*.json")
	if err != nil {
		return errors.Wrapf(blog.ErrStorage, "write %s: %v", m.path, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(blog.ErrStorage, "write %s: %v", m.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(blog.ErrStorage, "write %s: %v", m.path, err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return errors.Wrapf(blog.ErrStorage, "write %s: %v", m.path, err)
	}
	m.written = raw
	return nil
}

// Watch reloads the database whenever the file changes on disk, until ctx
// is done.
func (m *FileManager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to build db watcher")
	}
	// Watch the directory: a rename replaces the inode a file watch sits on.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "failed to watch db directory")
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-watcher.Events:
				if filepath.Clean(e.Name) != filepath.Clean(m.path) {
					continue
				}
				if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				m.logger.Debug().Str("event", e.Op.String()).Msg("db file event occurs")
				if err := m.reload(); err != nil {
					m.logger.Error().Err(err).Msg("failed to reload db file")
				}
			case err := <-watcher.Errors:
				m.logger.Error().Err(err).Msg("db watcher error")
			}
		}
	}()
	return nil
}

func (m *FileManager) indexOf(id int) int {
	for i, p := range m.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *FileManager) ListPosts(_ context.Context) ([]blog.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]blog.Post{}, m.posts...), nil
}

func (m *FileManager) GetPost(_ context.Context, id int) (blog.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.posts[i], nil
	}
	return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", id)
}

func (m *FileManager) AddPost(_ context.Context, post blog.Post) (blog.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID == 0 {
		post.ID = blog.NextID(m.posts)
	} else if m.indexOf(post.ID) >= 0 {
		return blog.Post{}, errors.Wrapf(blog.ErrDuplicateID, "post %d", post.ID)
	}

	prev := m.posts
	m.posts = append(append([]blog.Post{}, prev...), post)
	if err := m.flush(); err != nil {
		m.posts = prev
		return blog.Post{}, err
	}
	return post, nil
}

func (m *FileManager) ReplacePost(_ context.Context, post blog.Post) (blog.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(post.ID)
	if i < 0 {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", post.ID)
	}

	prev := m.posts
	m.posts = append([]blog.Post{}, prev...)
	m.posts[i] = post
	if err := m.flush(); err != nil {
		m.posts = prev
		return blog.Post{}, err
	}
	return post, nil
}

func (m *FileManager) DeletePost(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}

	prev := m.posts
	m.posts = append(append([]blog.Post{}, prev[:i]...), prev[i+1:]...)
	if err := m.flush(); err != nil {
		m.posts = prev
		return err
	}
	return nil
}

func (m *FileManager) IsReady(_ context.Context) bool {
	_, err := os.Stat(m.path)
	return err == nil
}
