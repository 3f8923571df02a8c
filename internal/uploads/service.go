package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crestline/site/internal/storage"
)

// Service holds the business logic for upload grants, policy commits, and
// access-checked reads. All state lives in the registry and the object store;
// the service itself is stateless and safe for concurrent use.
type Service struct {
	registry Registry
	store    storage.ObjectStore
	grantTTL time.Duration

	now func() time.Time
}

// NewService creates a new uploads Service. grantTTL is the fixed,
// non-renewable lifetime of an issued grant.
func NewService(registry Registry, store storage.ObjectStore, grantTTL time.Duration) *Service {
	return &Service{
		registry: registry,
		store:    store,
		grantTTL: grantTTL,
		now:      time.Now,
	}
}

// IssueGrant mints a fresh object id, asks the store for a presigned PUT URL,
// and records a pending upload owned by userID. The client uploads bytes
// directly to the returned URL; this service never sees the transfer.
func (s *Service) IssueGrant(ctx context.Context, userID string) (uploadURL, objectID string, err error) {
	// Amortized housekeeping; never a precondition for correctness.
	if _, err := s.registry.DeleteExpired(ctx, s.now()); err != nil {
		log.Printf("uploads: expired grant sweep failed: %v", err)
	}

	objectID = uuid.NewString()

	u, err := s.store.PresignedPut(ctx, StorageKey(objectID), s.grantTTL)
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}

	// Registered only after the presign succeeded, so a failed issuance
	// leaves nothing behind.
	if err := s.registry.Create(ctx, objectID, userID, s.now().Add(s.grantTTL)); err != nil {
		return "", "", fmt.Errorf("register pending upload: %w", err)
	}

	return u.String(), objectID, nil
}

// Commit decides whether userID may attach an ownership policy to the object
// behind rawImageURL, and performs the attachment. An existing policy always
// wins over the pending-grant check, so the registry is only consulted for
// first-time commits; the original owner can re-submit the same image without
// a fresh grant. A consumed grant is deleted, making redemption single-use.
func (s *Service) Commit(ctx context.Context, rawImageURL, userID string) (string, error) {
	objectPath, err := Canonicalize(rawImageURL)
	if err != nil {
		return "", err
	}
	objectID, err := ObjectID(objectPath)
	if err != nil {
		return "", err
	}

	pending, err := s.registry.Get(ctx, objectID)
	if err != nil {
		return "", fmt.Errorf("look up pending upload: %w", err)
	}

	key := StorageKey(objectID)

	var existing *Policy
	info, err := s.store.Stat(ctx, key)
	switch {
	case err == nil:
		existing, _ = PolicyFromMetadata(info.UserMetadata)
	case errors.Is(err, storage.ErrObjectNotFound):
		// Nothing uploaded yet; same as having no policy.
	default:
		return "", fmt.Errorf("stat object %s: %w", objectID, err)
	}

	switch {
	case existing != nil:
		if existing.Owner != userID {
			return "", ErrNotOwner
		}
	case pending == nil:
		return "", ErrNotRegistered
	case pending.OwnerID != userID:
		return "", ErrNotOwner
	case pending.Expired(s.now()):
		return "", ErrExpired
	}

	policy := Policy{Owner: userID, Visibility: VisibilityPublic}
	if err := s.store.SetUserMetadata(ctx, key, policy.Metadata()); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Grant redeemed before any bytes were uploaded.
			return "", ErrNotFound
		}
		return "", fmt.Errorf("attach policy to %s: %w", objectID, err)
	}

	if pending != nil {
		if err := s.registry.Delete(ctx, objectID); err != nil {
			// The attached policy already governs every later decision for
			// this object; the leftover row falls to the next sweep.
			log.Printf("uploads: consume grant %s: %v", objectID, err)
		}
	}

	return objectPath, nil
}

// CanRead reports whether userID (empty for anonymous) may fetch the object
// behind objectPath. Returns ErrNotFound when the object is absent.
func (s *Service) CanRead(ctx context.Context, objectPath, userID string) (bool, error) {
	_, err := s.evaluate(ctx, objectPath, userID)
	if errors.Is(err, ErrAccessDenied) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Fetch opens the object behind objectPath after evaluating the caller's read
// access. The caller must close the returned reader.
func (s *Service) Fetch(ctx context.Context, objectPath, userID string) (io.ReadCloser, *storage.ObjectInfo, error) {
	key, err := s.evaluate(ctx, objectPath, userID)
	if err != nil {
		return nil, nil, err
	}

	rc, info, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetch object: %w", err)
	}
	return rc, info, nil
}

// evaluate resolves objectPath and applies the read-access decision:
// no policy → deny; public → anyone; private → owner only.
func (s *Service) evaluate(ctx context.Context, objectPath, userID string) (key string, err error) {
	canonical, err := Canonicalize(objectPath)
	if err != nil {
		return "", err
	}
	objectID, err := ObjectID(canonical)
	if err != nil {
		return "", err
	}
	key = StorageKey(objectID)

	info, err := s.store.Stat(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat object %s: %w", objectID, err)
	}

	policy, ok := PolicyFromMetadata(info.UserMetadata)
	if !ok {
		// Uncommitted objects are never readable through this path.
		return "", ErrAccessDenied
	}

	switch policy.Visibility {
	case VisibilityPublic:
		return key, nil
	case VisibilityPrivate:
		if userID != "" && userID == policy.Owner {
			return key, nil
		}
	}
	return "", ErrAccessDenied
}

// FetchPublic opens an unmanaged asset by its raw bucket key with no access
// evaluation. Keys inside the managed upload namespace are refused: those
// reads must go through the policy-evaluated path.
func (s *Service) FetchPublic(ctx context.Context, rawKey string) (io.ReadCloser, *storage.ObjectInfo, error) {
	key := strings.TrimPrefix(path.Clean("/"+rawKey), "/")
	if key == "" || key == "." || strings.HasPrefix(key, keyPrefix) {
		return nil, nil, ErrNotFound
	}

	rc, info, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetch public object: %w", err)
	}
	return rc, info, nil
}

// ReapExpired deletes every pending upload whose deadline has passed.
// Idempotent and safe to run concurrently with Commit: expiry decisions are
// made on the row's timestamp, never on its physical presence.
func (s *Service) ReapExpired(ctx context.Context) (int64, error) {
	return s.registry.DeleteExpired(ctx, s.now())
}

// RunReaper sweeps expired grants every interval until ctx is cancelled.
// Sweep failures are logged and retried on the next tick.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ReapExpired(ctx)
			if err != nil {
				log.Printf("uploads: reaper sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("uploads: reaped %d expired grants", n)
			}
		}
	}
}
