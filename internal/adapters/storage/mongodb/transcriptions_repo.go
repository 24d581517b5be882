package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/transcriptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TranscriptionsRepo struct {
	col *mongo.Collection
}

func NewTranscriptionsRepo(db *mongo.Database) *TranscriptionsRepo {
	return &TranscriptionsRepo{col: db.Collection(colTranscriptions)}
}

type audioMetaDoc struct {
	Filename  string `bson:"filename"`
	MimeType  string `bson:"mime_type"`
	SizeBytes int64  `bson:"size_bytes"`
}

type segmentDoc struct {
	Speaker string  `bson:"speaker"`
	Start   float64 `bson:"start"`
	End     float64 `bson:"end"`
	Text    string  `bson:"text"`
}

type editDoc struct {
	PreviousText string    `bson:"previous_text"`
	EditedBy     string    `bson:"edited_by"`
	EditedAt     time.Time `bson:"edited_at"`
}

type transcriptionDoc struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"session_id"`

	Audio    audioMetaDoc `bson:"audio"`
	Language string       `bson:"language"`

	Status     string       `bson:"status"`
	Text       string       `bson:"text"`
	Confidence float64      `bson:"confidence"`
	Segments   []segmentDoc `bson:"segments"`
	Edits      []editDoc    `bson:"edits"`

	Error string `bson:"error"`

	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
}

func (r *TranscriptionsRepo) Create(ctx context.Context, t transcriptions.Transcription) error {
	_, err := r.col.InsertOne(ctx, toTranscriptionDoc(t))
	return err
}

func (r *TranscriptionsRepo) GetByID(ctx context.Context, id string) (transcriptions.Transcription, error) {
	var doc transcriptionDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return transcriptions.Transcription{}, transcriptions.ErrNotFound
	}
	if err != nil {
		return transcriptions.Transcription{}, err
	}
	return fromTranscriptionDoc(doc), nil
}

func (r *TranscriptionsRepo) ListBySession(ctx context.Context, sessionID string) ([]transcriptions.Transcription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []transcriptionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]transcriptions.Transcription, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromTranscriptionDoc(doc))
	}
	return out, nil
}

func (r *TranscriptionsRepo) Update(ctx context.Context, t transcriptions.Transcription) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, toTranscriptionDoc(t))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return transcriptions.ErrNotFound
	}
	return nil
}

func (r *TranscriptionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return transcriptions.ErrNotFound
	}
	return nil
}

func (r *TranscriptionsRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

func toTranscriptionDoc(t transcriptions.Transcription) transcriptionDoc {
	doc := transcriptionDoc{
		ID:          t.ID,
		SessionID:   t.SessionID,
		Audio:       audioMetaDoc(t.Audio),
		Language:    t.Language,
		Status:      string(t.Status),
		Text:        t.Text,
		Confidence:  t.Confidence,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
	for _, sg := range t.Segments {
		doc.Segments = append(doc.Segments, segmentDoc(sg))
	}
	for _, e := range t.Edits {
		doc.Edits = append(doc.Edits, editDoc(e))
	}
	return doc
}

func fromTranscriptionDoc(d transcriptionDoc) transcriptions.Transcription {
	t := transcriptions.Transcription{
		ID:          d.ID,
		SessionID:   d.SessionID,
		Audio:       transcriptions.AudioMeta(d.Audio),
		Language:    d.Language,
		Status:      transcriptions.Status(d.Status),
		Text:        d.Text,
		Confidence:  d.Confidence,
		Error:       d.Error,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		CompletedAt: d.CompletedAt,
	}
	for _, sg := range d.Segments {
		t.Segments = append(t.Segments, transcriptions.Segment(sg))
	}
	for _, e := range d.Edits {
		t.Edits = append(t.Edits, transcriptions.Edit(e))
	}
	return t
}
