package mongodb

import (
	"context"

	"github.com/Teek0505/TransMedix/internal/domain/reference"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReferenceRepo struct {
	conditions *mongo.Collection
	symptoms   *mongo.Collection
}

func NewReferenceRepo(db *mongo.Database) *ReferenceRepo {
	return &ReferenceRepo{
		conditions: db.Collection(colConditions),
		symptoms:   db.Collection(colSymptoms),
	}
}

type conditionDoc struct {
	ID          string   `bson:"_id"`
	Code        string   `bson:"code"`
	Name        string   `bson:"name"`
	Description string   `bson:"description"`
	Synonyms    []string `bson:"synonyms"`
}

type symptomDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Category    string `bson:"category"`
	Description string `bson:"description"`
}

func (r *ReferenceRepo) SearchConditions(ctx context.Context, query string, limit int) ([]reference.Condition, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(limit))

	cursor, err := r.conditions.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []conditionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]reference.Condition, 0, len(docs))
	for _, doc := range docs {
		out = append(out, reference.Condition(doc))
	}
	return out, nil
}

func (r *ReferenceRepo) SearchSymptoms(ctx context.Context, query string, limit int) ([]reference.Symptom, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(limit))

	cursor, err := r.symptoms.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []symptomDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]reference.Symptom, 0, len(docs))
	for _, doc := range docs {
		out = append(out, reference.Symptom(doc))
	}
	return out, nil
}

func (r *ReferenceRepo) SeedIfEmpty(ctx context.Context, conditions []reference.Condition, symptoms []reference.Symptom) error {
	n, err := r.conditions.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n == 0 && len(conditions) > 0 {
		docs := make([]interface{}, 0, len(conditions))
		for _, c := range conditions {
			docs = append(docs, conditionDoc(c))
		}
		if _, err := r.conditions.InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	n, err = r.symptoms.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n == 0 && len(symptoms) > 0 {
		docs := make([]interface{}, 0, len(symptoms))
		for _, s := range symptoms {
			docs = append(docs, symptomDoc(s))
		}
		if _, err := r.symptoms.InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	return nil
}
