package uploads

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// CanonicalPrefix is the public-facing path prefix for managed uploads.
const CanonicalPrefix = "/objects/uploads/"

// keyPrefix is the bucket namespace reserved for grant-minted objects.
const keyPrefix = "uploads/"

// Canonicalize maps a raw upload locator — the presigned URL handed back by
// the object store, its bare path, or an already-canonical path — to the
// canonical form "/objects/uploads/{objectId}". Anything outside the uploads
// namespace is rejected: the namespace is an allow-list, not a deny-list.
func Canonicalize(raw string) (string, error) {
	p := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
		// The presign query string is transport detail, not identity.
		p = u.Path
	}
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}

	segments := strings.Split(strings.Trim(path.Clean(p), "/"), "/")

	// Accepted shapes, the last two segments always "uploads/{id}":
	//   /objects/uploads/{id}   canonical
	//   /{bucket}/uploads/{id}  path-style storage URL
	//   /uploads/{id}           virtual-host-style storage URL
	n := len(segments)
	if n < 2 || n > 3 || segments[n-2] != "uploads" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}

	return CanonicalPrefix + segments[n-1], nil
}

// ObjectID extracts and validates the object identifier from a canonical path.
func ObjectID(canonical string) (string, error) {
	id, ok := strings.CutPrefix(canonical, CanonicalPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, canonical)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: malformed object id %q", ErrInvalidPath, id)
	}
	return id, nil
}

// StorageKey returns the bucket key for a managed object id.
func StorageKey(objectID string) string {
	return keyPrefix + objectID
}
