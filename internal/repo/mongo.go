package repo

import (
	"context"
	"time"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colUsers     = "users"
	colIssues    = "issues"
	colSnapshots = "analytics_snapshots"
	colLocks     = "locks"
)

const connectAttempts = 5

type DB struct {
	Client *mongo.Client
	DB     *mongo.Database
	log    zerolog.Logger
}

// MustOpen connects to Mongo with a bounded retry budget and exits the
// process when the budget is exhausted. The driver reconnects on its own
// after startup.
func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
	var client *mongo.Client
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx2, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
		client, err = mongo.Connect(ctx2, options.Client().ApplyURI(cfg.MongoURI))
		if err == nil {
			err = client.Ping(ctx2, nil)
		}
		cancel()
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("mongo connect failed")
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("mongo unreachable, giving up")
	}
	return &DB{Client: client, DB: client.Database(cfg.MongoDB), log: log}
}

func (d *DB) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Client.Disconnect(ctx); err != nil {
		d.log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}

// EnsureIndexes creates the indexes the query layer assumes. Safe to call
// on every startup; Mongo treats existing definitions as no-ops.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.DB.Collection(colUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = d.DB.Collection(colIssues).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = d.DB.Collection(colSnapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "takenAt", Value: -1}},
	})
	return err
}

// TryLock acquires a named lease for ttl. It returns false without error
// when another holder still has a live lease.
func (d *DB) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	locks := d.DB.Collection(colLocks)
	_, err := locks.InsertOne(ctx, bson.M{"_id": name, "expiresAt": now.Add(ttl)})
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}
	// Lock document exists: take it over only if the lease ran out.
	res, err := locks.UpdateOne(ctx,
		bson.M{"_id": name, "expiresAt": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"expiresAt": now.Add(ttl)}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (d *DB) Unlock(ctx context.Context, name string) error {
	_, err := d.DB.Collection(colLocks).DeleteOne(ctx, bson.M{"_id": name})
	return err
}
