package badgerimpl

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"miniblog/blog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const (
	// post:<8 byte position> -> post JSON. Big-endian keys iterate in
	// insertion order.
	PostKeyPrefix = "post:"
	// postid:<id> -> 8 byte position
	IDKeyPrefix = "postid:"
	// Sequence key for insertion positions
	PositionSeqKey = "seq:position"
)

type BadgerManager struct {
	db *badger.DB
}

func NewBadgerManager(db *badger.DB) *BadgerManager {
	return &BadgerManager{db: db}
}

func positionKey(position uint64) []byte {
	key := make([]byte, len(PostKeyPrefix)+8)
	copy(key, PostKeyPrefix)
	binary.BigEndian.PutUint64(key[len(PostKeyPrefix):], position)
	return key
}

func idKey(id int) []byte {
	return []byte(IDKeyPrefix + strconv.Itoa(id))
}

// nextPosition bumps the position counter inside txn.
func nextPosition(txn *badger.Txn) (uint64, error) {
	var position uint64 = 1
	item, err := txn.Get([]byte(PositionSeqKey))
	if err != nil && err != badger.ErrKeyNotFound {
		return 0, err
	}
	if err == nil {
		err = item.Value(func(val []byte) error {
			position = binary.BigEndian.Uint64(val) + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, position)
	return position, txn.Set([]byte(PositionSeqKey), buf)
}

func lookupPosition(txn *badger.Txn, id int) ([]byte, error) {
	item, err := txn.Get(idKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(blog.ErrStorage, "lookup post %d: %v", id, err)
	}
	return item.ValueCopy(nil)
}

func (m *BadgerManager) ListPosts(_ context.Context) ([]blog.Post, error) {
	posts := []blog.Post{}
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post blog.Post
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &post)
			})
			if err != nil {
				return errors.Wrapf(blog.ErrStorage, "failed to unmarshal post: %v", err)
			}
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (m *BadgerManager) GetPost(_ context.Context, id int) (blog.Post, error) {
	var post blog.Post
	err := m.db.View(func(txn *badger.Txn) error {
		position, err := lookupPosition(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(append([]byte(PostKeyPrefix), position...))
		if err != nil {
			return errors.Wrapf(blog.ErrStorage, "get post %d: %v", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &post)
		})
	})
	if err != nil {
		return blog.Post{}, err
	}
	return post, nil
}

func (m *BadgerManager) maxID(txn *badger.Txn) (int, error) {
	max := 0
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(IDKeyPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		id, err := strconv.Atoi(string(it.Item().Key()[len(prefix):]))
		if err != nil {
			return 0, errors.Wrapf(blog.ErrStorage, "corrupt id key %q", it.Item().Key())
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (m *BadgerManager) AddPost(_ context.Context, post blog.Post) (blog.Post, error) {
	err := m.db.Update(func(txn *badger.Txn) error {
		if post.ID == 0 {
			max, err := m.maxID(txn)
			if err != nil {
				return err
			}
			post.ID = max + 1
		} else if _, err := txn.Get(idKey(post.ID)); err == nil {
			return errors.Wrapf(blog.ErrDuplicateID, "post %d", post.ID)
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrapf(blog.ErrStorage, "lookup post %d: %v", post.ID, err)
		}

		position, err := nextPosition(txn)
		if err != nil {
			return errors.Wrapf(blog.ErrStorage, "next position: %v", err)
		}
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		key := positionKey(position)
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(idKey(post.ID), key[len(PostKeyPrefix):])
	})
	if err != nil {
		return blog.Post{}, err
	}
	return post, nil
}

func (m *BadgerManager) ReplacePost(_ context.Context, post blog.Post) (blog.Post, error) {
	err := m.db.Update(func(txn *badger.Txn) error {
		position, err := lookupPosition(txn, post.ID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		return txn.Set(append([]byte(PostKeyPrefix), position...), data)
	})
	if err != nil {
		return blog.Post{}, err
	}
	return post, nil
}

func (m *BadgerManager) DeletePost(_ context.Context, id int) error {
	return m.db.Update(func(txn *badger.Txn) error {
		position, err := lookupPosition(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(append([]byte(PostKeyPrefix), position...)); err != nil {
			return err
		}
		return txn.Delete(idKey(id))
	})
}

func (m *BadgerManager) IsReady(_ context.Context) bool {
	return !m.db.IsClosed()
}
