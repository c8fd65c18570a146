package sqlimpl

import (
	"context"
	"database/sql"
	"miniblog/blog"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	PostsTable       = "posts"
	CreatePostsTable = `CREATE TABLE IF NOT EXISTS posts (
	id BIGINT NOT NULL PRIMARY KEY,
	title TEXT NOT NULL,
	datetime TEXT NOT NULL,
	body TEXT NOT NULL,
	position BIGINT NOT NULL
);`
)

var postColumns = []string{"id", "title", "datetime", "body"}

// SQLManager stores posts in a relational table. Driver is either
// "sqlite3" or "postgres".
type SQLManager struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  zerolog.Logger
}

func NewSQLManager(driver string, dsn string, logger zerolog.Logger) (*SQLManager, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	var format sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		format = sq.Dollar
	}
	if driver == "sqlite3" {
		// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	return &SQLManager{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		logger:  logger,
	}, nil
}

func (s *SQLManager) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, CreatePostsTable)
	return err
}

func (s *SQLManager) Close() error {
	return s.db.Close()
}

func (s *SQLManager) IsReady(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *SQLManager) ListPosts(ctx context.Context) ([]blog.Post, error) {
	rows, err := s.builder.Select(postColumns...).
		From(PostsTable).
		OrderBy("position ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(blog.ErrStorage, "list posts: %v", err)
	}
	defer rows.Close()

	posts := make([]blog.Post, 0, 10)
	for rows.Next() {
		var post blog.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Datetime, &post.Body); err != nil {
			return nil, errors.Wrapf(blog.ErrStorage, "scan post: %v", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (s *SQLManager) GetPost(ctx context.Context, id int) (blog.Post, error) {
	return s.findWith(ctx, s.db, id)
}

func (s *SQLManager) findWith(ctx context.Context, runner sq.BaseRunner, id int) (blog.Post, error) {
	var post blog.Post
	err := s.builder.Select(postColumns...).
		From(PostsTable).
		Where(sq.Eq{"id": id}).
		RunWith(runner).
		QueryRowContext(ctx).
		Scan(&post.ID, &post.Title, &post.Datetime, &post.Body)
	if err == sql.ErrNoRows {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "get post %d: %v", id, err)
	}
	return post, nil
}

type rollbacker interface {
	Rollback() error
}

func (s *SQLManager) rollback(tx rollbacker, id int) {
	if err := tx.Rollback(); err != nil {
		s.logger.Err(err).Int("id", id).Msg("failed to rollback transaction")
	}
}

func (s *SQLManager) AddPost(ctx context.Context, post blog.Post) (created blog.Post, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "begin: %v", err)
	}
	defer func() {
		if err != nil {
			s.rollback(tx, post.ID)
		}
	}()

	var maxID, maxPosition int64
	err = s.builder.Select("COALESCE(MAX(id), 0)", "COALESCE(MAX(position), 0)").
		From(PostsTable).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&maxID, &maxPosition)
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "read sequence: %v", err)
	}

	if post.ID == 0 {
		post.ID = int(maxID) + 1
	} else if _, findErr := s.findWith(ctx, tx, post.ID); findErr == nil {
		err = errors.Wrapf(blog.ErrDuplicateID, "post %d", post.ID)
		return blog.Post{}, err
	} else if !errors.Is(findErr, blog.ErrNotFound) {
		err = findErr
		return blog.Post{}, err
	}

	_, err = s.builder.Insert(PostsTable).
		Columns("id", "title", "datetime", "body", "position").
		Values(post.ID, post.Title, post.Datetime, post.Body, maxPosition+1).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "insert post %d: %v", post.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "commit: %v", err)
	}
	return post, nil
}

func (s *SQLManager) ReplacePost(ctx context.Context, post blog.Post) (blog.Post, error) {
	err := assertAffected(s.builder.Update(PostsTable).
		Where(sq.Eq{"id": post.ID}).
		Set("title", post.Title).
		Set("datetime", post.Datetime).
		Set("body", post.Body).
		RunWith(s.db).
		ExecContext(ctx))
	if err != nil {
		return blog.Post{}, errors.Wrapf(err, "replace post %d", post.ID)
	}
	return post, nil
}

func (s *SQLManager) DeletePost(ctx context.Context, id int) error {
	err := assertAffected(s.builder.Delete(PostsTable).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "delete post %d", id)
	}
	return nil
}

func assertAffected(r sql.Result, err error) error {
	if err != nil {
		return errors.Wrap(blog.ErrStorage, err.Error())
	}

	affected, err := r.RowsAffected()
	if err != nil {
		return errors.Wrap(blog.ErrStorage, err.Error())
	}

	if affected == 0 {
		return blog.ErrNotFound
	}
	return nil
}
