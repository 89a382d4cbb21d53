package presence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/account-service/internal/domain"
)

// Store tracks which users hold at least one live socket connection.
// A user may connect from several devices; only the first connect and the
// last disconnect change their online state.
type Store struct {
	redis *redis.Client
}

// NewStore constructs a Redis-backed presence store.
func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func roleKey(role domain.Role) string {
	return "presence:role:" + string(role)
}

func connKey(userID string) string {
	return "presence:conns:" + userID
}

// KEYS[1] is the connection counter, KEYS[2] the role set, ARGV[1] the user.
var connectScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('SADD', KEYS[2], ARGV[1])
end
return n
`)

// The counter is deleted at zero or below so a disconnect whose connect was
// never recorded cannot leave it negative and hide the next connect.
var disconnectScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	redis.call('SREM', KEYS[2], ARGV[1])
end
return n
`)

// Connect registers one connection and reports whether the user just came online.
func (s *Store) Connect(ctx context.Context, userID string, role domain.Role) (bool, error) {
	count, err := connectScript.Run(ctx, s.redis, []string{connKey(userID), roleKey(role)}, userID).Int64()
	if err != nil {
		return false, fmt.Errorf("presence connect: %w", err)
	}
	return count == 1, nil
}

// Disconnect releases one connection and reports whether the user went
// offline. A disconnect with no recorded connection also reports offline.
func (s *Store) Disconnect(ctx context.Context, userID string, role domain.Role) (bool, error) {
	count, err := disconnectScript.Run(ctx, s.redis, []string{connKey(userID), roleKey(role)}, userID).Int64()
	if err != nil {
		return false, fmt.Errorf("presence disconnect: %w", err)
	}
	return count <= 0, nil
}

// IsOnline reports whether userID has a live connection.
func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	count, err := s.redis.Get(ctx, connKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("presence lookup: %w", err)
	}
	return count > 0, nil
}

// Online lists online user ids per role, sorted.
func (s *Store) Online(ctx context.Context, roles ...domain.Role) (map[domain.Role][]string, error) {
	if len(roles) == 0 {
		roles = domain.Roles
	}
	out := make(map[domain.Role][]string, len(roles))
	for _, role := range roles {
		members, err := s.redis.SMembers(ctx, roleKey(role)).Result()
		if err != nil {
			return nil, fmt.Errorf("presence list: %w", err)
		}
		sort.Strings(members)
		out[role] = members
	}
	return out, nil
}
