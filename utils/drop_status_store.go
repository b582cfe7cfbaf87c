package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

// DropStatusStore is a redis backed fast path for daily drop view/bookmark
// status. Postgres stays the source of truth, this store only serves the
// dashboard read path so that rendering a feed does not fan out into per-row
// DB lookups. Losing redis therefore only costs latency, not correctness.
type DropStatusStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	RedisTrue  = "1"
	RedisFalse = "0"

	viewedField     = "viewed"
	bookmarkedField = "bookmarked"
)

var ctx = context.Background()

func GetDropStatusStore() (*DropStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &DropStatusStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) DecodeDropKey(key string) (string, string, error) {
	splits := strings.Split(key, r.delimiter)
	if (len(splits)) != 2 {
		return "", "", fmt.Errorf("invalid key: %s", key)
	}
	return splits[0], splits[1], nil
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeDropKey(userId string, contentId string) (string, error) {
	if !r.ValidateId(userId) || !r.ValidateId(contentId) {
		return "", fmt.Errorf("invalid userId or contentId")
	}
	return userId + r.delimiter + contentId, nil
}

// MarkDropViewed records that a user opened a dropped content item.
func (s *DropStatusStore) MarkDropViewed(userId string, contentId string) error {
	key, err := s.keyParser.EncodeDropKey(userId, contentId)
	if err != nil {
		return err
	}
	return s.inner.HSet(ctx, key, viewedField, RedisTrue).Err()
}

// MarkDropBookmarked records that a user bookmarked a dropped content item.
func (s *DropStatusStore) MarkDropBookmarked(userId string, contentId string) error {
	key, err := s.keyParser.EncodeDropKey(userId, contentId)
	if err != nil {
		return err
	}
	return s.inner.HSet(ctx, key, bookmarkedField, RedisTrue).Err()
}

// GetDropStatuses returns (viewed, bookmarked) pairs for the given content ids
// of one user, missing keys default to false.
func (s *DropStatusStore) GetDropStatuses(userId string, contentIds []string) ([]bool, []bool, error) {
	viewed := make([]bool, len(contentIds))
	bookmarked := make([]bool, len(contentIds))

	pipe := s.inner.Pipeline()
	cmds := make([]*redis.SliceCmd, len(contentIds))
	for idx, cid := range contentIds {
		key, err := s.keyParser.EncodeDropKey(userId, cid)
		if err != nil {
			return nil, nil, err
		}
		cmds[idx] = pipe.HMGet(ctx, key, viewedField, bookmarkedField)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, nil, err
	}

	for idx, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 2 {
			continue
		}
		viewed[idx] = vals[0] == RedisTrue
		bookmarked[idx] = vals[1] == RedisTrue
	}
	return viewed, bookmarked, nil
}
