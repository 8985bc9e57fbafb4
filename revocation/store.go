package revocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every backend failure. Callers treat it fail-closed
// and distinct from ordinary rejections so they can retry with backoff.
var ErrUnavailable = errors.New("revocation store unavailable")

// ErrMetadataNotFound is returned when no metadata record exists for a jti
// (never written, or already expired from the store).
var ErrMetadataNotFound = errors.New("token metadata not found")

const minBlacklistTTL = time.Second

// revokeScript performs the terminal state transition for one jti as a
// single atomic step: blacklist entry, metadata active flip, and removal
// from the per-user index. A jti already on the blacklist is left
// untouched, which makes revocation idempotent.
//
// KEYS[1] blacklist entry, KEYS[2] metadata hash, KEYS[3] user index.
// ARGV[1] reason, ARGV[2] blacklist TTL seconds, ARGV[3] revoked_at unix,
// ARGV[4] jti.
const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
if redis.call("EXISTS", KEYS[2]) == 1 then
  redis.call("HSET", KEYS[2], "active", "0", "revoked_at", ARGV[3], "revoke_reason", ARGV[1])
end
redis.call("SREM", KEYS[3], ARGV[4])
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Store is the Redis-backed revocation and metadata store. Safe for
// concurrent use; all mutation happens through atomic commands or scripts.
type Store struct {
	rdb             *redis.Client
	prefix          string
	maxBlacklistTTL time.Duration
	now             func() time.Time
}

// NewStore builds a store over an existing Redis client. maxBlacklistTTL
// caps every blacklist entry; it is normally the refresh-token lifetime,
// the longest any covered token can remain otherwise valid.
func NewStore(rdb *redis.Client, prefix string, maxBlacklistTTL time.Duration) *Store {
	if prefix == "" {
		prefix = "gt"
	}
	if maxBlacklistTTL < minBlacklistTTL {
		maxBlacklistTTL = minBlacklistTTL
	}
	return &Store{
		rdb:             rdb,
		prefix:          prefix,
		maxBlacklistTTL: maxBlacklistTTL,
		now:             time.Now,
	}
}

func (s *Store) blacklistKey(jti string) string { return s.prefix + ":bl:" + jti }
func (s *Store) metadataKey(jti string) string  { return s.prefix + ":meta:" + jti }
func (s *Store) userKey(userID string) string   { return s.prefix + ":user:" + userID }

func (s *Store) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// SavePair persists the metadata for both halves of a freshly issued pair
// and indexes them under the owning user, all in one transactional
// pipeline. Either every record lands or none does.
func (s *Store) SavePair(ctx context.Context, access, refresh *Metadata) error {
	if access.UserID != refresh.UserID {
		return errors.New("pair metadata must share a user")
	}

	now := s.now()
	accessTTL := access.ExpiresAt.Sub(now)
	refreshTTL := refresh.ExpiresAt.Sub(now)
	if accessTTL <= 0 || refreshTTL <= 0 {
		return errors.New("pair metadata already expired")
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.metadataKey(access.JTI), encodeMetadata(access))
	pipe.Expire(ctx, s.metadataKey(access.JTI), accessTTL)
	pipe.HSet(ctx, s.metadataKey(refresh.JTI), encodeMetadata(refresh))
	pipe.Expire(ctx, s.metadataKey(refresh.JTI), refreshTTL)
	userKey := s.userKey(access.UserID)
	pipe.SAdd(ctx, userKey, access.JTI, refresh.JTI)
	pipe.Expire(ctx, userKey, s.maxBlacklistTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Get loads the metadata record for a jti.
func (s *Store) Get(ctx context.Context, jti string) (*Metadata, error) {
	fields, err := s.rdb.HGetAll(ctx, s.metadataKey(jti)).Result()
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(fields) == 0 {
		return nil, ErrMetadataNotFound
	}
	return decodeMetadata(jti, fields)
}

// Revoke adds a jti to the blacklist and flips its metadata inactive in a
// single atomic script. Reports whether this call performed the
// revocation; calling again for the same jti changes nothing.
func (s *Store) Revoke(ctx context.Context, jti, reason string) (bool, error) {
	userID := ""
	ttl := s.maxBlacklistTTL
	if meta, err := s.Get(ctx, jti); err == nil {
		userID = meta.UserID
		if remaining := meta.ExpiresAt.Sub(s.now()); remaining < ttl {
			ttl = remaining
		}
	} else if !errors.Is(err, ErrMetadataNotFound) {
		return false, err
	}
	// Metadata about to expire, or already gone: the explicit blacklist
	// entry is still written.
	if ttl < minBlacklistTTL {
		ttl = minBlacklistTTL
	}

	added, err := revokeLua.Run(ctx, s.rdb,
		[]string{s.blacklistKey(jti), s.metadataKey(jti), s.userKey(userID)},
		reason,
		int64(ttl.Round(time.Second)/time.Second),
		s.now().Unix(),
		jti,
	).Int64()
	if err != nil {
		return false, s.wrap(err)
	}
	return added == 1, nil
}

// RevokeAllForUser revokes every token in the user's active index and
// clears the index. Returns how many tokens this call revoked.
func (s *Store) RevokeAllForUser(ctx context.Context, userID, reason string) (int, error) {
	userKey := s.userKey(userID)
	jtis, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, s.wrap(err)
	}

	count := 0
	for _, jti := range jtis {
		added, err := s.Revoke(ctx, jti, reason)
		if err != nil {
			return count, err
		}
		if added {
			count++
		}
	}

	if err := s.rdb.Del(ctx, userKey).Err(); err != nil {
		return count, s.wrap(err)
	}
	return count, nil
}

// IsBlacklisted reports blacklist membership for a jti. O(1).
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.blacklistKey(jti)).Result()
	if err != nil {
		return false, s.wrap(err)
	}
	return n == 1, nil
}

// DeleteMetadata drops a metadata record ahead of its TTL. Used for
// best-effort cleanup when a token is observed expired.
func (s *Store) DeleteMetadata(ctx context.Context, jti string) error {
	if err := s.rdb.Del(ctx, s.metadataKey(jti)).Err(); err != nil {
		return s.wrap(err)
	}
	return nil
}

// ActiveTokens lists the jtis currently indexed for a user.
func (s *Store) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	jtis, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, s.wrap(err)
	}
	return jtis, nil
}

func encodeMetadata(m *Metadata) map[string]interface{} {
	active := "1"
	if !m.Active {
		active = "0"
	}
	perms, _ := json.Marshal(m.Permissions)
	fields := map[string]interface{}{
		"user_id":            m.UserID,
		"token_type":         m.TokenType,
		"active":             active,
		"created_at":         strconv.FormatInt(m.CreatedAt.Unix(), 10),
		"expires_at":         strconv.FormatInt(m.ExpiresAt.Unix(), 10),
		"linked_jti":         m.LinkedJTI,
		"device_fingerprint": m.DeviceFingerprint,
		"ip_address":         m.IPAddress,
		"permissions":        string(perms),
	}
	return fields
}

func decodeMetadata(jti string, fields map[string]string) (*Metadata, error) {
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt metadata for %s: created_at: %v", jti, err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt metadata for %s: expires_at: %v", jti, err)
	}

	meta := &Metadata{
		JTI:               jti,
		UserID:            fields["user_id"],
		TokenType:         fields["token_type"],
		Active:            fields["active"] == "1",
		CreatedAt:         time.Unix(createdAt, 0),
		ExpiresAt:         time.Unix(expiresAt, 0),
		LinkedJTI:         fields["linked_jti"],
		DeviceFingerprint: fields["device_fingerprint"],
		IPAddress:         fields["ip_address"],
		RevokeReason:      fields["revoke_reason"],
	}
	if raw := fields["permissions"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta.Permissions); err != nil {
			return nil, fmt.Errorf("corrupt metadata for %s: permissions: %v", jti, err)
		}
	}
	if raw := fields["revoked_at"]; raw != "" {
		revokedAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt metadata for %s: revoked_at: %v", jti, err)
		}
		meta.RevokedAt = time.Unix(revokedAt, 0)
	}
	return meta, nil
}
