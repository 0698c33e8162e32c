package profiles

import (
	"context"
	"fmt"
	"time"

	"github.com/mwholloway/salescope/internal/app/system/normalize"
	"github.com/mwholloway/salescope/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_profiles_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// EnsureForUser returns the profile for a user, creating one with the
// default role on first sight. The upsert keeps concurrent first requests
// from racing each other.
func (s *Store) EnsureForUser(ctx context.Context, userID primitive.ObjectID, email string) (*models.Profile, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{"email": normalize.Email(email)},
		"$setOnInsert": bson.M{
			"role":       models.RoleUser,
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var p models.Profile
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUser loads the profile for a user. Returns mongo.ErrNoDocuments if
// the user has none yet.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetDisplayName updates the display name. The caller is responsible for
// sanitizing the value first.
func (s *Store) SetDisplayName(ctx context.Context, userID primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{
			"display_name": name,
			"updated_at":   time.Now().UTC(),
		},
	})
	return err
}

// SetRole changes a user's role. Authorization is enforced at the handler,
// not here.
func (s *Store) SetRole(ctx context.Context, userID primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{
			"role":       role,
			"updated_at": time.Now().UTC(),
		},
	})
	return err
}
