package users

import "context"

type requesterKey struct{}

// NewContext returns a copy of ctx carrying the authenticated requester.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, requesterKey{}, u)
}

// FromContext returns the authenticated requester stored in ctx, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(requesterKey{}).(*User)
	return u, ok && u != nil
}
