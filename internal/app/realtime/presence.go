package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"socialex/internal/app/user"
	"socialex/internal/pkg/logx"
)

// Audience selects which side of a user's social graph hears about their presence.
type Audience string

const (
	// AudienceFollowers notifies the users who follow the user that came online.
	AudienceFollowers Audience = "followers"

	// AudienceFollowing notifies the users the user that came online follows.
	AudienceFollowing Audience = "following"
)

// ParseAudience validates s. The empty string selects AudienceFollowers.
func ParseAudience(s string) (Audience, error) {
	switch a := Audience(s); a {
	case "":
		return AudienceFollowers, nil
	case AudienceFollowers, AudienceFollowing:
		return a, nil
	default:
		return "", fmt.Errorf("unknown presence audience %q", s)
	}
}

// Presence fans online/offline transitions out to the live part of a user's social graph.
// The graph is resolved on every transition; nothing is cached between calls.
type Presence struct {
	users    user.Store
	registry *Registry
	audience Audience
	logger   zerolog.Logger
}

// NewPresence returns a Presence reading graphs from users and connections from registry.
func NewPresence(users user.Store, registry *Registry, audience Audience) *Presence {
	if audience == "" {
		audience = AudienceFollowers
	}
	return &Presence{
		users:    users,
		registry: registry,
		audience: audience,
		logger:   logx.Component("presence"),
	}
}

// Online emits friend-online for userID and returns the number of events emitted.
func (p *Presence) Online(ctx context.Context, userID string) int {
	return p.propagate(ctx, userID, true)
}

// Offline emits friend-offline for userID and returns the number of events emitted.
func (p *Presence) Offline(ctx context.Context, userID string) int {
	return p.propagate(ctx, userID, false)
}

func (p *Presence) propagate(ctx context.Context, userID string, online bool) int {
	u, err := p.users.GetUser(ctx, userID)
	if err != nil {
		event := p.logger.Warn()
		if errors.Is(err, user.ErrNotFound) {
			event = p.logger.Debug()
		}
		event.Err(err).Str("user_id", userID).Bool("online", online).Msg("Presence skipped: social graph unavailable")
		return 0
	}

	name, payload := EventFriendOffline, PresencePayload{UserID: userID}
	if online {
		name, payload.Username = EventFriendOnline, u.Username
	}

	sent := 0
	for _, id := range p.audienceOf(u) {
		if id == userID {
			continue
		}
		conn, ok := p.registry.Lookup(id)
		if !ok {
			continue
		}
		if emit(conn, name, payload) {
			sent++
		}
	}

	p.logger.Debug().
		Str("user_id", userID).
		Str("event", name).
		Int("notified", sent).
		Msg("Presence propagated")

	return sent
}

func (p *Presence) audienceOf(u user.User) []string {
	if p.audience == AudienceFollowing {
		return u.Following
	}
	return u.Followers
}
