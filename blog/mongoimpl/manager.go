package mongoimpl

import (
	"context"
	"fmt"
	"miniblog/blog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collName = "posts"

type MongoManager struct {
	posts  *mongo.Collection
	client *mongo.Client
}

func ensureIndexes(ctx context.Context, collection *mongo.Collection) {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	_, err := collection.Indexes().CreateMany(ctx, indexModels, opts)
	if err != nil {
		panic(fmt.Errorf("failed to ensure indexes %w", err))
	}
}

func NewMongoManager(mongoURL string, dbName string) *MongoManager {
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		panic(err)
	}

	collection := client.Database(dbName).Collection(collName)
	ensureIndexes(ctx, collection)

	return &MongoManager{
		posts:  collection,
		client: client,
	}
}

func (m *MongoManager) IsReady(ctx context.Context) bool {
	return m.client.Ping(ctx, nil) == nil
}

func (m *MongoManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ListPosts sorts by the driver-generated ObjectID, which grows with insertion.
func (m *MongoManager) ListPosts(ctx context.Context) ([]blog.Post, error) {
	cursor, err := m.posts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(blog.ErrStorage, "list posts: %v", err)
	}
	defer cursor.Close(ctx)

	posts := []blog.Post{}
	for cursor.Next(ctx) {
		var doc blog.Post
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrapf(blog.ErrStorage, "decode post: %v", err)
		}
		posts = append(posts, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrapf(blog.ErrStorage, "list posts: %v", err)
	}
	return posts, nil
}

func (m *MongoManager) GetPost(ctx context.Context, id int) (blog.Post, error) {
	var doc blog.Post
	err := m.posts.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "get post %d: %v", id, err)
	}
	return doc, nil
}

func (m *MongoManager) nextID(ctx context.Context) (int, error) {
	var doc blog.Post
	err := m.posts.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, errors.Wrapf(blog.ErrStorage, "next id: %v", err)
	}
	return doc.ID + 1, nil
}

func (m *MongoManager) AddPost(ctx context.Context, post blog.Post) (blog.Post, error) {
	if post.ID == 0 {
		id, err := m.nextID(ctx)
		if err != nil {
			return blog.Post{}, err
		}
		post.ID = id
	}
	_, err := m.posts.InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return blog.Post{}, errors.Wrapf(blog.ErrDuplicateID, "post %d", post.ID)
	}
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "add post: %v", err)
	}
	return post, nil
}

func (m *MongoManager) ReplacePost(ctx context.Context, post blog.Post) (blog.Post, error) {
	update := bson.M{
		"$set": bson.M{
			"title":    post.Title,
			"datetime": post.Datetime,
			"body":     post.Body,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated blog.Post
	err := m.posts.FindOneAndUpdate(ctx, bson.M{"id": post.ID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return blog.Post{}, errors.Wrapf(blog.ErrNotFound, "post %d", post.ID)
	}
	if err != nil {
		return blog.Post{}, errors.Wrapf(blog.ErrStorage, "replace post %d: %v", post.ID, err)
	}
	return updated, nil
}

func (m *MongoManager) DeletePost(ctx context.Context, id int) error {
	res, err := m.posts.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrapf(blog.ErrStorage, "delete post %d: %v", id, err)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(blog.ErrNotFound, "post %d", id)
	}
	return nil
}
