package users

import (
	"bytes"
	"context"
	"encoding/gob"
	"strconv"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

type userStore interface {
	Add(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Follow(ctx context.Context, followerID, authorID int) error
	Unfollow(ctx context.Context, followerID, authorID int) (bool, error)
	FollowerIDs(ctx context.Context, authorID int) ([]int, error)
	IsFollowing(ctx context.Context, followerID, authorID int) (bool, error)
}

var _ userStore = (*Repo)(nil)
var _ userStore = (*CachedRepo)(nil)

// CachedRepo keeps user records in an in-process cache. Users are looked up
// on every authenticated request, and a user's identity never changes after
// registration, so entries only leave the cache by expiry or eviction.
type CachedRepo struct {
	userStore
	cache         *freecache.Cache
	expireSeconds int
}

func NewCachedRepo(store userStore, cacheSizeMegabytes, expireSeconds int) *CachedRepo {
	megabyte := 1024 * 1024
	return &CachedRepo{
		userStore:     store,
		cache:         freecache.NewCache(cacheSizeMegabytes * megabyte),
		expireSeconds: expireSeconds,
	}
}

func (r *CachedRepo) GetByID(ctx context.Context, id int) (*User, error) {
	cacheKey := []byte("user::" + strconv.Itoa(id))
	if userBytes, err := r.cache.Get(cacheKey); err == nil {
		var u User
		if err := gob.NewDecoder(bytes.NewReader(userBytes)).Decode(&u); err == nil {
			return &u, nil
		} else {
			log.Errorf("decode cached user %d: %s", id, err)
		}
	}

	u, err := r.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// gob keeps the password hash, which the JSON form of User omits
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(u); err != nil {
		log.Errorf("encode user %d for cache: %s", id, err)
	} else if err := r.cache.Set(cacheKey, buf.Bytes(), r.expireSeconds); err != nil {
		log.Warnf("cache user %d: %s", id, err)
	}

	return u, nil
}
