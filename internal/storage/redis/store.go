package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yndnr/filegate/internal/core/domain"
)

const (
	fieldToken      = "token"
	fieldExpiration = "expiration_time"
)

// resetScript clears the expiry only when the record exists.
var resetScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], "")
end
return 0
`)

// claimScript moves a token from the unclaimed set onto the user's hash.
// A failed write puts the token back. Returns 0 when the token is not
// in the set.
var claimScript = goredis.NewScript(`
if redis.call("SREM", KEYS[1], ARGV[1]) == 0 then
	return 0
end
local res = redis.pcall("HSET", KEYS[2], ARGV[2], ARGV[1], ARGV[3], ARGV[4])
if type(res) ~= "number" then
	redis.call("SADD", KEYS[1], ARGV[1])
	if type(res) == "table" and res.err then
		return redis.error_reply(res.err)
	end
	return redis.error_reply("ERR claim write failed")
end
return 1
`)

// Config configures the Redis connection.
type Config struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultConfig returns a configuration for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		KeyPrefix:    "filegate",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
	}
}

// Store keeps tokens and users in Redis.
type Store struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "filegate"
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

func (s *Store) tokenKey(userID int64) string {
	return s.prefix + ":token:" + strconv.FormatInt(userID, 10)
}

func (s *Store) unclaimedKey() string { return s.prefix + ":unclaimed" }

func (s *Store) usersKey() string { return s.prefix + ":users" }

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseExpiry(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetToken returns the user's token record.
func (s *Store) GetToken(ctx context.Context, userID int64) (*domain.TokenRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.tokenKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get token: %w", err)
	}
	tok, ok := fields[fieldToken]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	exp, err := parseExpiry(fields[fieldExpiration])
	if err != nil {
		return nil, fmt.Errorf("redis: bad expiration for user %d: %w", userID, err)
	}
	return &domain.TokenRecord{UserID: userID, Token: tok, ExpiresAt: exp}, nil
}

// UpsertToken creates or overwrites the user's token record.
func (s *Store) UpsertToken(ctx context.Context, rec *domain.TokenRecord) error {
	err := s.client.HSet(ctx, s.tokenKey(rec.UserID),
		fieldToken, rec.Token,
		fieldExpiration, formatExpiry(rec.ExpiresAt),
	).Err()
	if err != nil {
		return fmt.Errorf("redis: upsert token: %w", err)
	}
	return nil
}

// ResetExpiration clears the expiry of an existing record.
func (s *Store) ResetExpiration(ctx context.Context, userID int64) error {
	err := resetScript.Run(ctx, s.client, []string{s.tokenKey(userID)}, fieldExpiration).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis: reset expiration: %w", err)
	}
	return nil
}

// ClaimToken removes the token from the unclaimed set and attaches it to
// the user in one script. SREM decides the winner between concurrent claims.
func (s *Store) ClaimToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	claimed, err := claimScript.Run(ctx, s.client,
		[]string{s.unclaimedKey(), s.tokenKey(userID)},
		token, fieldToken, fieldExpiration, formatExpiry(&expiresAt),
	).Int()
	if err != nil {
		return fmt.Errorf("redis: claim token: %w", err)
	}
	if claimed == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

// AddUnclaimedToken stores a token without an owner.
func (s *Store) AddUnclaimedToken(ctx context.Context, token string) error {
	if err := s.client.SAdd(ctx, s.unclaimedKey(), token).Err(); err != nil {
		return fmt.Errorf("redis: add unclaimed token: %w", err)
	}
	return nil
}

// AddUser registers the user, keeping the first registration time.
func (s *Store) AddUser(ctx context.Context, userID int64) error {
	err := s.client.ZAddNX(ctx, s.usersKey(), goredis.Z{
		Score:  float64(s.now().Unix()),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: add user: %w", err)
	}
	return nil
}

// HasUser reports whether the user is registered.
func (s *Store) HasUser(ctx context.Context, userID int64) (bool, error) {
	_, err := s.client.ZScore(ctx, s.usersKey(), strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: has user: %w", err)
	}
	return true, nil
}

// DeleteUser removes the user.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.client.ZRem(ctx, s.usersKey(), strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("redis: delete user: %w", err)
	}
	return nil
}

// ListUsers returns user ids in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]int64, error) {
	members, err := s.client.ZRange(ctx, s.usersKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list users: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: bad user member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, s.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: count users: %w", err)
	}
	return n, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
