package jwt

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrKeyUnavailable is returned when no current signing key exists and one
// cannot be provisioned. Issuance must never proceed without a durable key.
var ErrKeyUnavailable = errors.New("no current signing key available")

// ErrUnknownKeyID is returned when a token's kid resolves to no current or
// retired-but-unexpired key.
var ErrUnknownKeyID = errors.New("unknown kid")

// ErrMissingKeyID is returned when a token header carries no kid at all.
var ErrMissingKeyID = errors.New("missing kid")

// KeyRecord is one Ed25519 signing keypair tracked by the ring. RetireAt is
// zero while the record is current; once rotated out it marks the end of
// the verification grace window.
type KeyRecord struct {
	KID        string             `json:"kid"`
	PrivateKey ed25519.PrivateKey `json:"private_key"`
	PublicKey  ed25519.PublicKey  `json:"public_key"`
	CreatedAt  time.Time          `json:"created_at"`
	RetireAt   time.Time          `json:"retire_at,omitzero"`
}

func (r *KeyRecord) retired() bool {
	return !r.RetireAt.IsZero()
}

// KeyStore persists key records so sibling processes can verify tokens
// signed elsewhere. Save must be durable before Rotate swaps the current
// pointer.
type KeyStore interface {
	Save(ctx context.Context, rec *KeyRecord) error
	Retire(ctx context.Context, kid string, retireAt time.Time) error
	Load(ctx context.Context) ([]*KeyRecord, error)
}

// MemoryKeyStore is the ephemeral KeyStore. Keys do not survive process
// restarts; every token becomes unverifiable after a restart.
type MemoryKeyStore struct {
	mu   sync.Mutex
	recs map[string]*KeyRecord
}

// NewMemoryKeyStore returns an empty in-memory key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{recs: make(map[string]*KeyRecord)}
}

// Save stores a copy of the record.
func (m *MemoryKeyStore) Save(_ context.Context, rec *KeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.recs[rec.KID] = &cp
	return nil
}

// Retire stamps RetireAt on a stored record.
func (m *MemoryKeyStore) Retire(_ context.Context, kid string, retireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[kid]; ok {
		rec.RetireAt = retireAt
	}
	return nil
}

// Load returns copies of all stored records.
func (m *MemoryKeyStore) Load(_ context.Context) ([]*KeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*KeyRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

// Keyring owns the current signing key and every retired key still inside
// its grace window. Rotation is the only operation that takes the mutex;
// readers resolve the current key through a single atomic pointer load and
// retired keys through an RWMutex-guarded map.
type Keyring struct {
	store KeyStore
	grace time.Duration
	now   func() time.Time

	mu      sync.Mutex // serializes rotation
	current atomic.Pointer[KeyRecord]

	retiredMu sync.RWMutex
	retired   map[string]*KeyRecord
}

// NewKeyring builds a ring over the given store. grace is how long a
// rotated-out key keeps verifying tokens signed before the rotation.
func NewKeyring(store KeyStore, grace time.Duration) (*Keyring, error) {
	if store == nil {
		return nil, errors.New("keyring requires a key store")
	}
	if grace <= 0 {
		return nil, errors.New("invalid grace window")
	}
	return &Keyring{
		store:   store,
		grace:   grace,
		now:     time.Now,
		retired: make(map[string]*KeyRecord),
	}, nil
}

// Hydrate loads persisted records into the ring. The newest non-retired
// record becomes current; retired records inside their grace window stay
// available for verification.
func (k *Keyring) Hydrate(ctx context.Context) error {
	recs, err := k.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	var newest *KeyRecord
	k.retiredMu.Lock()
	for _, rec := range recs {
		switch {
		case !rec.retired():
			if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
				if newest != nil {
					// Two non-retired records can only happen after a crash
					// mid-rotation; the older one is retired on the spot.
					newest.RetireAt = now.Add(k.grace)
					k.retired[newest.KID] = newest
				}
				newest = rec
			} else {
				rec.RetireAt = now.Add(k.grace)
				k.retired[rec.KID] = rec
			}
		case rec.RetireAt.After(now):
			k.retired[rec.KID] = rec
		}
	}
	k.retiredMu.Unlock()

	if newest != nil {
		k.current.Store(newest)
	}
	return nil
}

// Rotate generates a fresh Ed25519 keypair, persists it durably, and only
// then swaps the current pointer. The previous key is retired with
// RetireAt = now + grace so tokens signed moments before rotation keep
// validating. Returns the new kid.
func (k *Keyring) Rotate(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rotateLocked(ctx)
}

func (k *Keyring) rotateLocked(ctx context.Context) (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: keypair generation: %v", ErrKeyUnavailable, err)
	}

	rec := &KeyRecord{
		KID:        uuid.NewString(),
		PrivateKey: priv,
		PublicKey:  pub,
		CreatedAt:  k.now(),
	}

	// Persist before swap: verification readers must never observe a
	// current pointer referencing a key that is not yet durable.
	if err := k.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: persist new key: %v", ErrKeyUnavailable, err)
	}

	prev := k.current.Swap(rec)
	if prev != nil {
		retireAt := k.now().Add(k.grace)
		prev.RetireAt = retireAt
		k.retiredMu.Lock()
		k.retired[prev.KID] = prev
		k.retiredMu.Unlock()
		if err := k.store.Retire(ctx, prev.KID, retireAt); err != nil {
			// The old key is already retired in-process; a failed store
			// update only delays retirement for other processes.
			return rec.KID, nil
		}
	}

	k.pruneLocked()
	return rec.KID, nil
}

// SigningKey returns the current private key and its kid. On first use
// with no key present a rotation is triggered automatically.
func (k *Keyring) SigningKey(ctx context.Context) (ed25519.PrivateKey, string, error) {
	if rec := k.current.Load(); rec != nil {
		return rec.PrivateKey, rec.KID, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if rec := k.current.Load(); rec != nil {
		return rec.PrivateKey, rec.KID, nil
	}
	if _, err := k.rotateLocked(ctx); err != nil {
		return nil, "", err
	}
	rec := k.current.Load()
	if rec == nil {
		return nil, "", ErrKeyUnavailable
	}
	return rec.PrivateKey, rec.KID, nil
}

// VerificationKey resolves a kid to a public key. Current keys always
// resolve; retired keys resolve until their RetireAt passes.
func (k *Keyring) VerificationKey(kid string) (ed25519.PublicKey, error) {
	if kid == "" {
		return nil, ErrMissingKeyID
	}
	if rec := k.current.Load(); rec != nil && rec.KID == kid {
		return rec.PublicKey, nil
	}

	k.retiredMu.RLock()
	rec, ok := k.retired[kid]
	k.retiredMu.RUnlock()
	if !ok || !rec.RetireAt.After(k.now()) {
		return nil, ErrUnknownKeyID
	}
	return rec.PublicKey, nil
}

// CurrentKID returns the kid new tokens would be signed with, or "" when
// the ring is empty.
func (k *Keyring) CurrentKID() string {
	if rec := k.current.Load(); rec != nil {
		return rec.KID
	}
	return ""
}

func (k *Keyring) pruneLocked() {
	now := k.now()
	k.retiredMu.Lock()
	for kid, rec := range k.retired {
		if !rec.RetireAt.After(now) {
			delete(k.retired, kid)
		}
	}
	k.retiredMu.Unlock()
}
