package users

import (
	"context"
	"sync"
)

var _ userStore = (*repoMock)(nil)

type repoMock struct {
	mutex   sync.Mutex
	users   map[int]*User
	follows map[int]map[int]bool // author -> followers
	getByID int                  // number of GetByID calls
}

func newRepoMock() *repoMock {
	return &repoMock{
		users:   make(map[int]*User),
		follows: make(map[int]map[int]bool),
	}
}

func (r *repoMock) Add(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	user.ID = len(r.users) + 1
	r.users[user.ID] = user
	return nil
}

func (r *repoMock) GetByID(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.getByID++
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) Follow(_ context.Context, followerID, authorID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.follows[authorID] == nil {
		r.follows[authorID] = map[int]bool{}
	}
	r.follows[authorID][followerID] = true
	return nil
}

func (r *repoMock) Unfollow(_ context.Context, followerID, authorID int) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.follows[authorID][followerID] {
		return false, nil
	}
	delete(r.follows[authorID], followerID)
	return true, nil
}

func (r *repoMock) FollowerIDs(_ context.Context, authorID int) ([]int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var ids []int
	for id := range r.follows[authorID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repoMock) IsFollowing(_ context.Context, followerID, authorID int) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.follows[authorID][followerID], nil
}
