package redisimpl

import (
	"context"
	"encoding/json"
	"miniblog/blog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	postCacheTTL = 10 * time.Minute
	listCacheKey = "posts"
)

func cacheKeyForPost(id int) string { return "post:" + strconv.Itoa(id) }

func NewRedisManager(
	client *redis.Client,
	persistentManager blog.Manager,
) *RedisManager {

	return &RedisManager{
		client:            client,
		persistentManager: persistentManager,
	}
}

type RedisManager struct {
	client            *redis.Client
	persistentManager blog.Manager
}

func (r RedisManager) cache(ctx context.Context, key string, value any) {
	if raw, err := json.Marshal(value); err == nil {
		_ = r.client.Set(ctx, key, raw, postCacheTTL).Err()
	}
}

// ListPosts uses a read-through cache of the whole list.
func (r RedisManager) ListPosts(ctx context.Context) ([]blog.Post, error) {
	if bytes, err := r.client.Get(ctx, listCacheKey).Bytes(); err == nil {
		var cached []blog.Post
		if uErr := json.Unmarshal(bytes, &cached); uErr == nil {
			return cached, nil
		}
	}

	posts, err := r.persistentManager.ListPosts(ctx)
	if err != nil {
		return posts, err
	}
	r.cache(ctx, listCacheKey, posts)
	return posts, nil
}

// GetPost uses read-through cache backed by persistent storage.
func (r RedisManager) GetPost(ctx context.Context, id int) (blog.Post, error) {
	var cached blog.Post

	if bytes, err := r.client.Get(ctx, cacheKeyForPost(id)).Bytes(); err == nil {
		if uErr := json.Unmarshal(bytes, &cached); uErr == nil {
			return cached, nil
		}
	}

	post, err := r.persistentManager.GetPost(ctx, id)
	if err != nil {
		return post, err
	}
	r.cache(ctx, cacheKeyForPost(id), post)
	return post, nil
}

// AddPost writes through to persistent storage and updates the cache.
func (r RedisManager) AddPost(ctx context.Context, post blog.Post) (blog.Post, error) {
	created, err := r.persistentManager.AddPost(ctx, post)
	if err != nil {
		return created, err
	}
	_ = r.client.Del(ctx, listCacheKey).Err()
	r.cache(ctx, cacheKeyForPost(created.ID), created)
	return created, nil
}

// ReplacePost writes through the update and refreshes the cache entry.
func (r RedisManager) ReplacePost(ctx context.Context, post blog.Post) (blog.Post, error) {
	updated, err := r.persistentManager.ReplacePost(ctx, post)
	if err != nil {
		return updated, err
	}
	_ = r.client.Del(ctx, listCacheKey).Err()
	r.cache(ctx, cacheKeyForPost(updated.ID), updated)
	return updated, nil
}

// DeletePost removes the post from storage first, then evicts it.
func (r RedisManager) DeletePost(ctx context.Context, id int) error {
	if err := r.persistentManager.DeletePost(ctx, id); err != nil {
		return err
	}
	_ = r.client.Del(ctx, listCacheKey, cacheKeyForPost(id)).Err()
	return nil
}

// IsReady checks both Redis and the persistent manager health.
func (r RedisManager) IsReady(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return false
	}
	return r.persistentManager.IsReady(ctx)
}
