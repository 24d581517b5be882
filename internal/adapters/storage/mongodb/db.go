package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colPatients       = "patients"
	colSessions       = "sessions"
	colTranscriptions = "transcriptions"
	colSummaries      = "summaries"
	colConditions     = "conditions"
	colSymptoms       = "symptoms"
)

// Open conecta al servidor y devuelve la database lista para los repos.
func Open(uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client.Database(database), nil
}

// EnsureIndexes crea los índices que usan los repos. Idempotente.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// lookups por sesión
	if _, err := db.Collection(colTranscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := db.Collection(colSummaries).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := db.Collection(colSessions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patient_id", Value: 1}},
	}); err != nil {
		return err
	}

	// text search del catálogo
	if _, err := db.Collection(colConditions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "code", Value: "text"},
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "synonyms", Value: "text"},
		},
	}); err != nil {
		return err
	}
	if _, err := db.Collection(colSymptoms).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "category", Value: "text"},
			{Key: "description", Value: "text"},
		},
	}); err != nil {
		return err
	}

	return nil
}
