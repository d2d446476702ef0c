package repo

import (
	"context"
	"errors"

	"github.com/Ashen-sam/issue-tracker-api/internal/domain"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore persists accounts. Email uniqueness rides on the unique
// index; duplicate writes surface as domain.ErrEmailTaken.
type UserStore struct {
	c   *mongo.Collection
	log zerolog.Logger
}

func NewUserStore(d *DB, log zerolog.Logger) *UserStore {
	return &UserStore{c: d.DB.Collection(colUsers), log: log}
}

func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	res, err := s.c.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	var u domain.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (s *UserStore) Update(ctx context.Context, u domain.User) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetMany resolves a batch of user ids to public profiles. Ids with no
// matching record are simply absent from the result, which is how join
// enrichment drops dangling references.
func (s *UserStore) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.UserInfo, error) {
	out := make(map[primitive.ObjectID]domain.UserInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Info()
	}
	return out, nil
}
