package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/patients"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PatientsRepo struct {
	col *mongo.Collection
}

func NewPatientsRepo(db *mongo.Database) *PatientsRepo {
	return &PatientsRepo{col: db.Collection(colPatients)}
}

type patientDoc struct {
	ID             string     `bson:"_id"`
	FullName       string     `bson:"full_name"`
	DocumentNumber string     `bson:"document_number"`
	Sex            string     `bson:"sex"`
	BirthDate      *time.Time `bson:"birth_date,omitempty"`
	Email          string     `bson:"email"`
	Phone          string     `bson:"phone"`
	Notes          string     `bson:"notes"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	_, err := r.col.InsertOne(ctx, toPatientDoc(p))
	return err
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	var doc patientDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return patients.Patient{}, patients.ErrNotFound
	}
	if err != nil {
		return patients.Patient{}, err
	}
	return fromPatientDoc(doc), nil
}

func (r *PatientsRepo) List(ctx context.Context, limit int) ([]patients.Patient, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []patientDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]patients.Patient, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromPatientDoc(doc))
	}
	return out, nil
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, toPatientDoc(p))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func toPatientDoc(p patients.Patient) patientDoc {
	return patientDoc{
		ID:             p.ID,
		FullName:       p.FullName,
		DocumentNumber: p.DocumentNumber,
		Sex:            string(p.Sex),
		BirthDate:      p.BirthDate,
		Email:          p.Email,
		Phone:          p.Phone,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPatientDoc(d patientDoc) patients.Patient {
	return patients.Patient{
		ID:             d.ID,
		FullName:       d.FullName,
		DocumentNumber: d.DocumentNumber,
		Sex:            patients.Sex(d.Sex),
		BirthDate:      d.BirthDate,
		Email:          d.Email,
		Phone:          d.Phone,
		Notes:          d.Notes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
