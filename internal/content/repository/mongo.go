package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// record is the stored shape: the encoded document text (keys sorted) under
// its id, so numbers keep their exact formatting.
type record struct {
	Name      string    `bson:"_id"`
	JSON      string    `bson:"json"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoRepo keeps one named document per record in a Mongo collection.
type MongoRepo struct {
	col  *mongo.Collection
	name string
}

func NewMongoRepo(col *mongo.Collection, name string) *MongoRepo {
	return &MongoRepo{col: col, name: name}
}

// ID is the _id of the record this repo reads and replaces.
func (m *MongoRepo) ID() string { return m.name }

func (m *MongoRepo) Load(ctx context.Context) ([]byte, error) {
	var r record
	err := m.col.FindOne(ctx, bson.M{"_id": m.name}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(r.JSON), nil
}

func (m *MongoRepo) Save(ctx context.Context, raw []byte) error {
	r := record{Name: m.name, JSON: string(raw), UpdatedAt: time.Now().UTC()}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": m.name}, r, options.Replace().SetUpsert(true))
	return err
}
