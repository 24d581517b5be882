package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/sessions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionsRepo struct {
	col *mongo.Collection
}

func NewSessionsRepo(db *mongo.Database) *SessionsRepo {
	return &SessionsRepo{col: db.Collection(colSessions)}
}

type diagnosisDoc struct {
	ID          string    `bson:"id"`
	Code        string    `bson:"code"`
	Description string    `bson:"description"`
	RecordedBy  string    `bson:"recorded_by"`
	RecordedAt  time.Time `bson:"recorded_at"`
}

type prescriptionDoc struct {
	ID           string    `bson:"id"`
	Medication   string    `bson:"medication"`
	Dosage       string    `bson:"dosage"`
	Frequency    string    `bson:"frequency"`
	Duration     string    `bson:"duration"`
	Instructions string    `bson:"instructions"`
	RecordedBy   string    `bson:"recorded_by"`
	RecordedAt   time.Time `bson:"recorded_at"`
}

type sessionDoc struct {
	ID        string `bson:"_id"`
	PatientID string `bson:"patient_id"`

	DoctorUserID string `bson:"doctor_user_id"`
	DoctorName   string `bson:"doctor_name"`

	Status   string `bson:"status"`
	Language string `bson:"language"`

	ChiefComplaint string `bson:"chief_complaint"`
	Notes          string `bson:"notes"`

	TranscriptionIDs []string `bson:"transcription_ids"`
	SummaryID        string   `bson:"summary_id"`

	Diagnoses     []diagnosisDoc    `bson:"diagnoses"`
	Prescriptions []prescriptionDoc `bson:"prescriptions"`

	StartedAt *time.Time `bson:"started_at,omitempty"`
	EndedAt   *time.Time `bson:"ended_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *SessionsRepo) Create(ctx context.Context, s sessions.Session) error {
	_, err := r.col.InsertOne(ctx, toSessionDoc(s))
	return err
}

func (r *SessionsRepo) GetByID(ctx context.Context, id string) (sessions.Session, error) {
	var doc sessionDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sessions.Session{}, sessions.ErrNotFound
	}
	if err != nil {
		return sessions.Session{}, err
	}
	return fromSessionDoc(doc), nil
}

func (r *SessionsRepo) List(ctx context.Context, filter sessions.ListFilter) ([]sessions.Session, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := bson.M{}
	if filter.PatientID != "" {
		query["patient_id"] = filter.PatientID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]sessions.Session, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromSessionDoc(doc))
	}
	return out, nil
}

func (r *SessionsRepo) Update(ctx context.Context, s sessions.Session) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, toSessionDoc(s))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func toSessionDoc(s sessions.Session) sessionDoc {
	doc := sessionDoc{
		ID:               s.ID,
		PatientID:        s.PatientID,
		DoctorUserID:     s.DoctorUserID,
		DoctorName:       s.DoctorName,
		Status:           string(s.Status),
		Language:         s.Language,
		ChiefComplaint:   s.ChiefComplaint,
		Notes:            s.Notes,
		TranscriptionIDs: s.TranscriptionIDs,
		SummaryID:        s.SummaryID,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	for _, d := range s.Diagnoses {
		doc.Diagnoses = append(doc.Diagnoses, diagnosisDoc(d))
	}
	for _, p := range s.Prescriptions {
		doc.Prescriptions = append(doc.Prescriptions, prescriptionDoc(p))
	}
	return doc
}

func fromSessionDoc(d sessionDoc) sessions.Session {
	s := sessions.Session{
		ID:               d.ID,
		PatientID:        d.PatientID,
		DoctorUserID:     d.DoctorUserID,
		DoctorName:       d.DoctorName,
		Status:           sessions.Status(d.Status),
		Language:         d.Language,
		ChiefComplaint:   d.ChiefComplaint,
		Notes:            d.Notes,
		TranscriptionIDs: d.TranscriptionIDs,
		SummaryID:        d.SummaryID,
		StartedAt:        d.StartedAt,
		EndedAt:          d.EndedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	for _, dg := range d.Diagnoses {
		s.Diagnoses = append(s.Diagnoses, sessions.Diagnosis(dg))
	}
	for _, p := range d.Prescriptions {
		s.Prescriptions = append(s.Prescriptions, sessions.Prescription(p))
	}
	return s
}
