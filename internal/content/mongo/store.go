package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"topicast/internal/content"
)

const (
	DefaultDatabase   = "topicast"
	DefaultCollection = "episodes"
)

type Config struct {
	URI        string
	Database   string
	Collection string
}

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// document is the stored shape. Optional fields are omitted when empty so
// older documents and new ones share one collection.
type document struct {
	ID            string    `bson:"_id"`
	Topic         string    `bson:"topic"`
	Slug          string    `bson:"slug"`
	URL           string    `bson:"url"`
	Script        string    `bson:"script"`
	AudioRef      string    `bson:"audio_ref,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	WordCount     int       `bson:"word_count,omitempty"`
	Coverage      string    `bson:"coverage,omitempty"`
	DurationClass string    `bson:"duration_class,omitempty"`
	AudioBytes    int       `bson:"audio_bytes,omitempty"`
}

// Open connects to MongoDB and ensures the unique slug index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.Migrate(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Insert(ctx context.Context, r *content.Record) error {
	_, err := s.collection.InsertOne(ctx, toDocument(r))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = fmt.Errorf("%w: %v", content.ErrDuplicateSlug, err)
		}
		return &content.StorageFailure{Op: "insert", Slug: r.Slug, Err: err}
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]content.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(content.NormalizeLimit(limit)))

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var records []content.Record
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode episode: %w", err)
		}
		records = append(records, fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}

func (s *Store) Lookup(ctx context.Context, slug string) (*content.Record, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup episode: %w", err)
	}
	r := fromDocument(doc)
	return &r, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toDocument(r *content.Record) document {
	return document{
		ID:            r.ID,
		Topic:         r.Topic,
		Slug:          r.Slug,
		URL:           r.URL,
		Script:        r.Script,
		AudioRef:      r.AudioRef,
		CreatedAt:     r.CreatedAt,
		WordCount:     r.WordCount,
		Coverage:      r.Coverage,
		DurationClass: r.DurationClass,
		AudioBytes:    r.AudioBytes,
	}
}

func fromDocument(d document) content.Record {
	return content.Record{
		ID:            d.ID,
		Topic:         d.Topic,
		Slug:          d.Slug,
		URL:           d.URL,
		Script:        d.Script,
		AudioRef:      d.AudioRef,
		CreatedAt:     d.CreatedAt.UTC(),
		WordCount:     d.WordCount,
		Coverage:      d.Coverage,
		DurationClass: d.DurationClass,
		AudioBytes:    d.AudioBytes,
	}
}
