/*
Package user holds the read-side view of user identities and their social graph.

Profiles and follow relationships are owned by the account subsystem; the realtime layer
only reads them, through Store, to decide who hears about presence changes.
*/
package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user record exists for an identity.
var ErrNotFound = errors.New("user not found")

// User is the identity and social graph of a member.
type User struct {
	// ID is the stable user identity.
	ID string `json:"id"`

	// Username is the display name.
	Username string `json:"username"`

	// ProfilePic is the avatar reference.
	ProfilePic string `json:"profilePic,omitempty"`

	// Following lists the identities this user follows.
	Following []string `json:"following"`

	// Followers lists the identities that follow this user.
	Followers []string `json:"followers"`
}

// Store resolves users by identity. Implementations must be safe for concurrent use.
type Store interface {
	// GetUser returns the user with the given id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (User, error)
}
