package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const inboxKeyPrefix = "blogapp-notifications||"

// RedisInbox keeps the latest notifications of every user in a capped redis list.
type RedisInbox struct {
	redisClient *redis.Client
	maxSize     int64
}

func NewRedisInbox(redisClient *redis.Client, maxSize int) *RedisInbox {
	return &RedisInbox{
		redisClient: redisClient,
		maxSize:     int64(maxSize),
	}
}

func inboxKey(userID int) string {
	return inboxKeyPrefix + strconv.Itoa(userID)
}

func (i *RedisInbox) Store(ctx context.Context, event Event) error {
	entryBytes, err := json.Marshal(event.entry())
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	for _, recipient := range event.Recipients {
		key := inboxKey(recipient)
		if err := i.redisClient.LPush(ctx, key, string(entryBytes)).Err(); err != nil {
			return fmt.Errorf("push notification to %d: %w", recipient, err)
		}
		if err := i.redisClient.LTrim(ctx, key, 0, i.maxSize-1).Err(); err != nil {
			log.Warnf("trim inbox of %d: %s", recipient, err)
		}
	}

	return nil
}

// List returns up to limit notifications of the user, most recent first.
func (i *RedisInbox) List(ctx context.Context, userID, limit int) ([]Entry, error) {
	if limit <= 0 || int64(limit) > i.maxSize {
		limit = int(i.maxSize)
	}

	raw, err := i.redisClient.LRange(ctx, inboxKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications of %d: %w", userID, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			log.Errorf("unmarshal notification of %d: %s", userID, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
