package repo

import (
	"context"
	"errors"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SnapshotStore keeps the run history of the scheduled analytics job.
type SnapshotStore struct {
	c   *mongo.Collection
	log zerolog.Logger
}

func NewSnapshotStore(d *DB, log zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{c: d.DB.Collection(colSnapshots), log: log}
}

func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.Snapshot) error {
	res, err := s.c.InsertOne(ctx, snap)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		snap.ID = id
	}
	return nil
}

// Last returns the most recent snapshot, domain.ErrNotFound when the job
// has never run.
func (s *SnapshotStore) Last(ctx context.Context) (domain.Snapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "takenAt", Value: -1}})
	var snap domain.Snapshot
	err := s.c.FindOne(ctx, bson.M{}, opts).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return snap, err
}
