package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yndnr/filegate/internal/core/domain"
)

const (
	tokensCollection = "tokens"
	usersCollection  = "users"
)

// Config configures the MongoDB connection.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DefaultConfig returns a configuration for a local MongoDB.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "filegate",
		ConnectTimeout: 10 * time.Second,
	}
}

type tokenDoc struct {
	UserID    *int64     `bson:"user_id,omitempty"`
	Token     string     `bson:"token"`
	ExpiresAt *time.Time `bson:"expiration_time"`
}

type userDoc struct {
	ID        int64     `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store keeps tokens and users in MongoDB.
type Store struct {
	client *mongo.Client
	tokens *mongo.Collection
	users  *mongo.Collection
	now    func() time.Time

	// upsert writes the claimed record; replaced in tests.
	upsert func(context.Context, *domain.TokenRecord) error
}

// New connects, pings and makes sure the indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo: database name is required")
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, disconnect(client, fmt.Errorf("mongo: ping: %w", err))
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		tokens: db.Collection(tokensCollection),
		users:  db.Collection(usersCollection),
		now:    time.Now,
	}
	s.upsert = s.UpsertToken
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, disconnect(client, err)
	}
	return s, nil
}

// disconnect closes a client that failed setup, joining any close error
// to cause.
func disconnect(client *mongo.Client, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("mongo: disconnect: %w", err))
	}
	return cause
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.tokens.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"user_id": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("token"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

// GetToken returns the user's token record.
func (s *Store) GetToken(ctx context.Context, userID int64) (*domain.TokenRecord, error) {
	var doc tokenDoc
	err := s.tokens.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: get token: %w", err)
	}
	rec := &domain.TokenRecord{UserID: userID, Token: doc.Token}
	if doc.ExpiresAt != nil {
		exp := doc.ExpiresAt.UTC()
		rec.ExpiresAt = &exp
	}
	return rec, nil
}

// UpsertToken creates or overwrites the user's token record.
func (s *Store) UpsertToken(ctx context.Context, rec *domain.TokenRecord) error {
	_, err := s.tokens.UpdateOne(ctx,
		bson.M{"user_id": rec.UserID},
		bson.M{"$set": bson.M{"token": rec.Token, "expiration_time": rec.ExpiresAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: upsert token: %w", err)
	}
	return nil
}

// ResetExpiration clears the expiry of an existing record.
func (s *Store) ResetExpiration(ctx context.Context, userID int64) error {
	_, err := s.tokens.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"expiration_time": nil}},
	)
	if err != nil {
		return fmt.Errorf("mongo: reset expiration: %w", err)
	}
	return nil
}

// ClaimToken deletes the unclaimed document and writes the user's record.
// FindOneAndDelete picks a single winner among concurrent claims. When the
// record write fails the unclaimed document is inserted again.
func (s *Store) ClaimToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	err := s.tokens.FindOneAndDelete(ctx, bson.M{
		"token":   token,
		"user_id": bson.M{"$exists": false},
	}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("mongo: claim token: %w", err)
	}
	err = s.upsert(ctx, &domain.TokenRecord{UserID: userID, Token: token, ExpiresAt: &expiresAt})
	if err == nil {
		return nil
	}
	// Put the token back so the claim can be retried.
	if _, rerr := s.tokens.InsertOne(context.WithoutCancel(ctx), tokenDoc{Token: token}); rerr != nil {
		return errors.Join(err, fmt.Errorf("mongo: restore unclaimed token: %w", rerr))
	}
	return err
}

// AddUnclaimedToken stores a token without an owner.
func (s *Store) AddUnclaimedToken(ctx context.Context, token string) error {
	if _, err := s.tokens.InsertOne(ctx, tokenDoc{Token: token}); err != nil {
		return fmt.Errorf("mongo: add unclaimed token: %w", err)
	}
	return nil
}

// AddUser registers the user, keeping the first registration time.
func (s *Store) AddUser(ctx context.Context, userID int64) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": bson.M{"created_at": s.now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: add user: %w", err)
	}
	return nil
}

// HasUser reports whether the user is registered.
func (s *Store) HasUser(ctx context.Context, userID int64) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo: has user: %w", err)
	}
	return n > 0, nil
}

// DeleteUser removes the user.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.users.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("mongo: delete user: %w", err)
	}
	return nil
}

// ListUsers returns the ids of all registered users.
func (s *Store) ListUsers(ctx context.Context) ([]int64, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list users: %w", err)
	}
	defer cur.Close(ctx)

	var ids []int64
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode user: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: list users: %w", err)
	}
	return ids, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: count users: %w", err)
	}
	return n, nil
}

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes both collections. It exists for tests and the reset tooling.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.tokens.Drop(ctx); err != nil {
		return err
	}
	return s.users.Drop(ctx)
}
