package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/summaries"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SummariesRepo struct {
	col *mongo.Collection
}

func NewSummariesRepo(db *mongo.Database) *SummariesRepo {
	return &SummariesRepo{col: db.Collection(colSummaries)}
}

type sectionsDoc struct {
	ChiefComplaint string `bson:"chief_complaint"`
	History        string `bson:"history"`
	Assessment     string `bson:"assessment"`
	Plan           string `bson:"plan"`
}

type entitiesDoc struct {
	Symptoms    []string `bson:"symptoms"`
	Conditions  []string `bson:"conditions"`
	Medications []string `bson:"medications"`
}

type versionDoc struct {
	Version   int         `bson:"version"`
	Sections  sectionsDoc `bson:"sections"`
	Entities  entitiesDoc `bson:"entities"`
	RawText   string      `bson:"raw_text"`
	CreatedAt time.Time   `bson:"created_at"`
}

type summaryDoc struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"session_id"`

	Status string `bson:"status"`

	Sections           sectionsDoc `bson:"sections"`
	Entities           entitiesDoc `bson:"entities"`
	ReflexiveQuestions []string    `bson:"reflexive_questions"`

	RawText string `bson:"raw_text"`

	Model        string `bson:"model"`
	ProcessingMs int64  `bson:"processing_ms"`

	Version  int          `bson:"version"`
	Versions []versionDoc `bson:"versions"`

	Error string `bson:"error"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *SummariesRepo) Create(ctx context.Context, s summaries.Summary) error {
	_, err := r.col.InsertOne(ctx, toSummaryDoc(s))
	return err
}

func (r *SummariesRepo) GetByID(ctx context.Context, id string) (summaries.Summary, error) {
	var doc summaryDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return summaries.Summary{}, summaries.ErrNotFound
	}
	if err != nil {
		return summaries.Summary{}, err
	}
	return fromSummaryDoc(doc), nil
}

func (r *SummariesRepo) GetBySession(ctx context.Context, sessionID string) (summaries.Summary, error) {
	var doc summaryDoc
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return summaries.Summary{}, summaries.ErrNotFound
	}
	if err != nil {
		return summaries.Summary{}, err
	}
	return fromSummaryDoc(doc), nil
}

func (r *SummariesRepo) Update(ctx context.Context, s summaries.Summary) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, toSummaryDoc(s))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return summaries.ErrNotFound
	}
	return nil
}

func (r *SummariesRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

func toSummaryDoc(s summaries.Summary) summaryDoc {
	doc := summaryDoc{
		ID:                 s.ID,
		SessionID:          s.SessionID,
		Status:             string(s.Status),
		Sections:           sectionsDoc(s.Sections),
		Entities:           entitiesDoc(s.Entities),
		ReflexiveQuestions: s.ReflexiveQuestions,
		RawText:            s.RawText,
		Model:              s.Model,
		ProcessingMs:       s.ProcessingMs,
		Version:            s.Version,
		Error:              s.Error,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	for _, v := range s.Versions {
		doc.Versions = append(doc.Versions, versionDoc{
			Version:   v.Version,
			Sections:  sectionsDoc(v.Sections),
			Entities:  entitiesDoc(v.Entities),
			RawText:   v.RawText,
			CreatedAt: v.CreatedAt,
		})
	}
	return doc
}

func fromSummaryDoc(d summaryDoc) summaries.Summary {
	s := summaries.Summary{
		ID:                 d.ID,
		SessionID:          d.SessionID,
		Status:             summaries.Status(d.Status),
		Sections:           summaries.Sections(d.Sections),
		Entities:           summaries.Entities(d.Entities),
		ReflexiveQuestions: d.ReflexiveQuestions,
		RawText:            d.RawText,
		Model:              d.Model,
		ProcessingMs:       d.ProcessingMs,
		Version:            d.Version,
		Error:              d.Error,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	for _, v := range d.Versions {
		s.Versions = append(s.Versions, summaries.Version{
			Version:   v.Version,
			Sections:  summaries.Sections(v.Sections),
			Entities:  summaries.Entities(v.Entities),
			RawText:   v.RawText,
			CreatedAt: v.CreatedAt,
		})
	}
	return s
}
