package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoBackend persists audit records as documents in a single collection,
// keyed by job id.
type MongoBackend struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoBackend connects to uri and targets database "promptivd",
// collection "audit_records".
func NewMongoBackend(ctx context.Context, uri string) (*MongoBackend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo audit db: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo audit db: %w", err)
	}
	collection := client.Database("promptivd").Collection("audit_records")
	return &MongoBackend{client: client, collection: collection}, nil
}

type mongoRecord struct {
	JobID        string `bson:"_id"`
	Status       string `bson:"status"`
	Error        string `bson:"error,omitempty"`
	Client       string `bson:"client"`
	Label        string `bson:"label,omitempty"`
	Path         string `bson:"path,omitempty"`
	Provider     string `bson:"provider,omitempty"`
	DispatchedAt int64  `bson:"dispatched_at"`
	ResolvedAt   int64  `bson:"resolved_at"`
	DurationMS   int64  `bson:"duration_ms"`
	Metadata     []byte `bson:"metadata,omitempty"`
}

func (b *MongoBackend) Write(ctx context.Context, rec Record) error {
	doc := mongoRecord{
		JobID:        rec.JobID,
		Status:       string(rec.Status),
		Error:        rec.Error,
		Client:       rec.Client,
		Label:        rec.Label,
		Path:         rec.Path,
		Provider:     rec.Provider,
		DispatchedAt: rec.DispatchedAt.UnixMilli(),
		ResolvedAt:   rec.ResolvedAt.UnixMilli(),
		DurationMS:   rec.DurationMS,
		Metadata:     rec.Metadata,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := b.collection.ReplaceOne(ctx, bson.M{"_id": rec.JobID}, doc, opts)
	return err
}

func (b *MongoBackend) Close() error {
	return b.client.Disconnect(context.Background())
}
