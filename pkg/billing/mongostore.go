package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps the snapshot as a single embedded document on the
// user record, matching the "one atomic update per write" contract:
// a $set of the whole subscription field replaces the group in one
// document-level operation.
type MongoStore struct {
	users *mongo.Collection
}

// NewMongoStore creates a SnapshotStore over the given users collection.
func NewMongoStore(users *mongo.Collection) *MongoStore {
	if users == nil {
		panic("billing: mongo collection is required")
	}
	return &MongoStore{users: users}
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Subscription *Snapshot `bson:"subscription,omitempty"`
}

func (s *MongoStore) Get(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	var doc userDoc
	err := s.users.FindOne(ctx,
		bson.M{"_id": userID.String()},
		options.FindOne().SetProjection(bson.M{"subscription": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	if doc.Subscription == nil {
		// The user exists but never went through checkout.
		return Snapshot{}, ErrSnapshotNotFound
	}
	return *doc.Subscription, nil
}

func (s *MongoStore) FindByCustomerID(ctx context.Context, customerID string) (uuid.UUID, Snapshot, error) {
	if customerID == "" {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}

	var doc userDoc
	err := s.users.FindOne(ctx,
		bson.M{"subscription.customer_id": customerID},
		options.FindOne().SetProjection(bson.M{"subscription": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}

	userID, err := uuid.Parse(doc.ID)
	if err != nil || doc.Subscription == nil {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}
	return userID, *doc.Subscription, nil
}

func (s *MongoStore) Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$set": bson.M{"subscription": snapshot}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}
