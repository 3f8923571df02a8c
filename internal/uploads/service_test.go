package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline/site/internal/storage"
)

// -------- test fakes --------

type fakeRegistry struct {
	mu   sync.Mutex
	rows map[string]PendingUpload

	createErr error
	sweepErr  error
	deleteErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{rows: map[string]PendingUpload{}}
}

func (f *fakeRegistry) Create(ctx context.Context, objectID, ownerID string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[objectID] = PendingUpload{ObjectID: objectID, OwnerID: ownerID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRegistry) Get(ctx context.Context, objectID string) (*PendingUpload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[objectID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRegistry) Delete(ctx context.Context, objectID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, objectID)
	return nil
}

func (f *fakeRegistry) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.sweepErr != nil {
		return 0, f.sweepErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, p := range f.rows {
		if p.ExpiresAt.Before(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeObject struct {
	data        []byte
	contentType string
	meta        map[string]string
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]*fakeObject

	presignErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]*fakeObject{}}
}

func (f *fakeStore) put(key string, data []byte, meta map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = &fakeObject{data: data, contentType: "image/png", meta: meta}
}

func (f *fakeStore) PresignedPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return url.Parse("http://store.local/site-assets/" + key + "?X-Amz-Signature=test")
}

func (f *fakeStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return o.info(key), nil
}

func (f *fakeStore) SetUserMetadata(ctx context.Context, key string, meta map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return storage.ErrObjectNotFound
	}
	cp := make(map[string]string, len(meta))
	for k, v := range meta {
		cp[k] = v
	}
	o.meta = cp
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), o.info(key), nil
}

func (o *fakeObject) info(key string) *storage.ObjectInfo {
	meta := make(map[string]string, len(o.meta))
	for k, v := range o.meta {
		meta[k] = v
	}
	return &storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		UserMetadata: meta,
	}
}

// -------- helpers --------

func newTestService(t *testing.T) (*Service, *fakeRegistry, *fakeStore) {
	t.Helper()
	reg := newFakeRegistry()
	store := newFakeStore()
	svc := NewService(reg, store, time.Hour)
	return svc, reg, store
}

// issueAndUpload issues a grant for userID and simulates the out-of-band PUT.
func issueAndUpload(t *testing.T, svc *Service, store *fakeStore, userID string) (uploadURL, objectID string) {
	t.Helper()
	uploadURL, objectID, err := svc.IssueGrant(context.Background(), userID)
	require.NoError(t, err)
	store.put(StorageKey(objectID), []byte("image bytes"), nil)
	return uploadURL, objectID
}

// -------- grant issuance --------

func TestIssueGrant(t *testing.T) {
	svc, reg, _ := newTestService(t)
	start := time.Now()

	uploadURL, objectID, err := svc.IssueGrant(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Contains(t, uploadURL, StorageKey(objectID))

	p, err := reg.Get(context.Background(), objectID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "user-1", p.OwnerID)
	assert.WithinDuration(t, start.Add(time.Hour), p.ExpiresAt, 5*time.Second)
}

func TestIssueGrantPresignFailureLeavesNothing(t *testing.T) {
	svc, reg, store := newTestService(t)
	store.presignErr = errors.New("store unreachable")

	_, _, err := svc.IssueGrant(context.Background(), "user-1")
	require.Error(t, err)
	assert.Empty(t, reg.rows)
}

func TestIssueGrantSweepFailureIsNotFatal(t *testing.T) {
	svc, reg, _ := newTestService(t)
	reg.sweepErr = errors.New("sweep broken")

	_, _, err := svc.IssueGrant(context.Background(), "user-1")
	require.NoError(t, err)
}

func TestIssueGrantSweepsExpiredRows(t *testing.T) {
	svc, reg, _ := newTestService(t)
	stale := uuid.NewString()
	require.NoError(t, reg.Create(context.Background(), stale, "user-0", time.Now().Add(-time.Minute)))

	_, _, err := svc.IssueGrant(context.Background(), "user-1")
	require.NoError(t, err)

	p, err := reg.Get(context.Background(), stale)
	require.NoError(t, err)
	assert.Nil(t, p, "expired reservation should have been swept")
}

// -------- commit --------

func TestCommitSingleRedemption(t *testing.T) {
	svc, reg, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-1")

	objectPath, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)
	assert.Equal(t, CanonicalPrefix+objectID, objectPath)

	// The grant is consumed on success.
	p, err := reg.Get(context.Background(), objectID)
	require.NoError(t, err)
	assert.Nil(t, p)

	// With the grant gone and the policy stripped, a replayed commit has
	// nothing to authorize against.
	require.NoError(t, store.SetUserMetadata(context.Background(), StorageKey(objectID), map[string]string{}))
	_, err = svc.Commit(context.Background(), uploadURL, "user-1")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCommitAttachesPublicPolicy(t *testing.T) {
	svc, _, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-1")

	_, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)

	info, err := store.Stat(context.Background(), StorageKey(objectID))
	require.NoError(t, err)
	policy, ok := PolicyFromMetadata(info.UserMetadata)
	require.True(t, ok)
	assert.Equal(t, "user-1", policy.Owner)
	assert.Equal(t, VisibilityPublic, policy.Visibility)
}

func TestCommitForeignGrantDenied(t *testing.T) {
	svc, reg, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-a")

	_, err := svc.Commit(context.Background(), uploadURL, "user-b")
	assert.ErrorIs(t, err, ErrNotOwner)

	// The grant stays valid for its real owner.
	p, err := reg.Get(context.Background(), objectID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "user-a", p.OwnerID)
}

func TestCommitExpiredGrantDenied(t *testing.T) {
	svc, reg, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-1")

	// Push the deadline into the past; the row is still physically present,
	// which must not matter.
	reg.rows[objectID] = PendingUpload{
		ObjectID:  objectID,
		OwnerID:   "user-1",
		ExpiresAt: time.Now().Add(-time.Second),
	}

	_, err := svc.Commit(context.Background(), uploadURL, "user-1")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCommitUnknownObjectDenied(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Commit(context.Background(), CanonicalPrefix+uuid.NewString(), "user-1")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCommitOutOfNamespacePath(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, raw := range []string{
		"/objects/other/x",
		"/objects/uploads/not-a-uuid",
		"relative/path",
		"",
	} {
		_, err := svc.Commit(context.Background(), raw, "user-1")
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", raw)
	}
}

func TestCommitBeforeUploadReportsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	uploadURL, _, err := svc.IssueGrant(context.Background(), "user-1")
	require.NoError(t, err)

	// Grant valid, but no bytes were ever PUT to the store.
	_, err = svc.Commit(context.Background(), uploadURL, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecommitByOwnerIsIdempotent(t *testing.T) {
	svc, _, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-1")

	first, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)

	// No pending row remains, yet the owner can re-commit freely.
	for i := 0; i < 3; i++ {
		again, err := svc.Commit(context.Background(), uploadURL, "user-1")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	info, err := store.Stat(context.Background(), StorageKey(objectID))
	require.NoError(t, err)
	policy, ok := PolicyFromMetadata(info.UserMetadata)
	require.True(t, ok)
	assert.Equal(t, "user-1", policy.Owner, "owner never changes after first commit")

	_, err = svc.Commit(context.Background(), uploadURL, "user-2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCommitPolicyWinsOverForeignPending(t *testing.T) {
	svc, reg, store := newTestService(t)
	uploadURL, objectID := issueAndUpload(t, svc, store, "user-1")

	_, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)

	// Even a fresh pending row for someone else cannot transfer ownership
	// once a policy exists.
	require.NoError(t, reg.Create(context.Background(), objectID, "user-2", time.Now().Add(time.Hour)))
	_, err = svc.Commit(context.Background(), uploadURL, "user-2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCommitConsumeFailureIsNotFatal(t *testing.T) {
	svc, reg, store := newTestService(t)
	uploadURL, _ := issueAndUpload(t, svc, store, "user-1")
	reg.deleteErr = errors.New("delete broken")

	_, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)
}

// -------- read access --------

func TestCanReadPublicObject(t *testing.T) {
	svc, _, store := newTestService(t)
	uploadURL, _ := issueAndUpload(t, svc, store, "user-1")
	objectPath, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)

	for _, caller := range []string{"", "user-1", "someone-else"} {
		ok, err := svc.CanRead(context.Background(), objectPath, caller)
		require.NoError(t, err)
		assert.True(t, ok, "caller %q", caller)
	}
}

func TestCanReadPrivateObjectOwnerOnly(t *testing.T) {
	svc, _, store := newTestService(t)
	objectID := uuid.NewString()
	store.put(StorageKey(objectID), []byte("secret"), Policy{Owner: "user-1", Visibility: VisibilityPrivate}.Metadata())
	objectPath := CanonicalPrefix + objectID

	ok, err := svc.CanRead(context.Background(), objectPath, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, caller := range []string{"", "user-2"} {
		ok, err := svc.CanRead(context.Background(), objectPath, caller)
		require.NoError(t, err)
		assert.False(t, ok, "caller %q", caller)
	}
}

func TestCanReadUncommittedObjectDenied(t *testing.T) {
	svc, _, store := newTestService(t)
	objectID := uuid.NewString()
	store.put(StorageKey(objectID), []byte("orphan"), nil)

	ok, err := svc.CanRead(context.Background(), CanonicalPrefix+objectID, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanReadMissingObject(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CanRead(context.Background(), CanonicalPrefix+uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchStreamsBytes(t *testing.T) {
	svc, _, store := newTestService(t)
	uploadURL, _ := issueAndUpload(t, svc, store, "user-1")
	objectPath, err := svc.Commit(context.Background(), uploadURL, "user-1")
	require.NoError(t, err)

	rc, info, err := svc.Fetch(context.Background(), objectPath, "")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
	assert.Equal(t, "image/png", info.ContentType)
}

// -------- public pass-through --------

func TestFetchPublicServesUnmanagedKeys(t *testing.T) {
	svc, _, store := newTestService(t)
	store.put("branding/logo.svg", []byte("<svg/>"), nil)

	rc, _, err := svc.FetchPublic(context.Background(), "branding/logo.svg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), data)
}

func TestFetchPublicRefusesManagedNamespace(t *testing.T) {
	svc, _, store := newTestService(t)
	objectID := uuid.NewString()
	store.put(StorageKey(objectID), []byte("managed"), nil)

	for _, key := range []string{
		StorageKey(objectID),
		"../uploads/" + objectID,
		"",
	} {
		_, _, err := svc.FetchPublic(context.Background(), key)
		assert.ErrorIs(t, err, ErrNotFound, "key %q", key)
	}
}

func TestFetchPublicMissingKey(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.FetchPublic(context.Background(), "branding/missing.svg")
	assert.ErrorIs(t, err, ErrNotFound)
}

// -------- reaper --------

func TestReapExpiredRemovesOnlyExpiredRows(t *testing.T) {
	svc, reg, _ := newTestService(t)
	expired := uuid.NewString()
	live := uuid.NewString()
	require.NoError(t, reg.Create(context.Background(), expired, "user-1", time.Now().Add(-time.Minute)))
	require.NoError(t, reg.Create(context.Background(), live, "user-1", time.Now().Add(time.Hour)))

	n, err := svc.ReapExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := reg.Get(context.Background(), live)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
