package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rubiojr/postsearch/pkg/document"
)

// Mongo is a Store backed by a MongoDB collection with a text index over
// title, body and tags.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo configures a client for uri. The driver connects lazily and
// retries on its own, so an unreachable server surfaces on the first
// search rather than here.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// EnsureTextIndex creates the text index the $text operator requires.
func (m *Mongo) EnsureTextIndex(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "body", Value: "text"},
			{Key: "tags", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("creating text index: %w", err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Search(ctx context.Context, q Query) ([]document.Document, error) {
	cur, err := m.collection.Find(ctx, mongoFilter(q), mongoFindOptions(q))
	if err != nil {
		return nil, fmt.Errorf("finding posts: %w", err)
	}
	defer cur.Close(ctx)

	docs := []document.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}
	return docs, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func mongoFilter(q Query) bson.M {
	filter := bson.M{"$text": bson.M{"$search": q.Text}}
	if q.After != "" {
		filter["creationdate"] = bson.M{"$gt": q.After}
	}
	return filter
}

func mongoFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	switch q.Order {
	case OrderCreated:
		opts.SetSort(bson.D{{Key: "creationdate", Value: 1}, {Key: "id", Value: 1}})
	default:
		// Sort on the text score without projecting it: "score" is the
		// post's own field.
		opts.SetSort(bson.D{{Key: "relevance", Value: bson.M{"$meta": "textScore"}}})
	}
	return opts
}
