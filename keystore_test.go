package goToken

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goToken/jwt"
)

func newKeyStoreTest(t *testing.T) (*redisKeyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return newRedisKeyStore(rdb, "gt"), mr
}

func TestRedisKeyStoreRoundTrip(t *testing.T) {
	store, _ := newKeyStoreTest(t)
	ctx := context.Background()

	ring, err := jwt.NewKeyring(store, time.Hour)
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	kid, err := ring.Rotate(ctx)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	recs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 1 || recs[0].KID != kid {
		t.Fatalf("loaded %d records, want the rotated kid", len(recs))
	}
	if len(recs[0].PrivateKey) == 0 || len(recs[0].PublicKey) == 0 {
		t.Fatal("key material lost in persistence")
	}
}

func TestRedisKeyStoreRetire(t *testing.T) {
	store, _ := newKeyStoreTest(t)
	ctx := context.Background()

	ring, err := jwt.NewKeyring(store, time.Hour)
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	first, err := ring.Rotate(ctx)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := ring.Rotate(ctx); err != nil {
		t.Fatalf("second rotate: %v", err)
	}

	recs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var foundRetired bool
	for _, rec := range recs {
		if rec.KID == first {
			foundRetired = true
			if rec.RetireAt.IsZero() {
				t.Fatal("rotated-out key has no retire time persisted")
			}
		}
	}
	if !foundRetired {
		t.Fatal("retired key dropped while still inside its grace window")
	}
}

func TestRedisKeyStoreDropsExpiredRecords(t *testing.T) {
	store, _ := newKeyStoreTest(t)
	ctx := context.Background()

	rec := &jwt.KeyRecord{
		KID:       "stale",
		CreatedAt: time.Now().Add(-48 * time.Hour),
		RetireAt:  time.Now().Add(-time.Hour),
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	recs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expired record survived load: %d", len(recs))
	}
	// And it was purged from the hash, not just filtered.
	recs, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(recs) != 0 {
		t.Fatal("expired record still stored")
	}
}

// Tokens signed by one engine must verify in a second engine sharing only
// the Redis backend, the way sibling replicas do.
func TestTokensVerifyAcrossEngines(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	signer, err := New().WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}
	defer signer.Close()

	pair, err := signer.IssuePair(context.Background(), IssueRequest{
		UserID:     "u1",
		DeviceInfo: "X",
		IPAddress:  "1.1.1.1",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier, err := New().WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build verifier: %v", err)
	}
	defer verifier.Close()

	res := verifier.Validate(context.Background(), pair.AccessToken, "1.1.1.1", "X")
	if !res.Valid() {
		t.Fatalf("sibling validation failed: %s (%v)", res.Status, res.Err)
	}
}
