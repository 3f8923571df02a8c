package uploads

import "net/http"

// Visibility is the access-control dimension of a committed object besides
// ownership.
type Visibility string

const (
	// VisibilityPublic objects are readable by anyone, including anonymous callers.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate objects are readable only by their owner.
	VisibilityPrivate Visibility = "private"
)

// Metadata keys under which the policy is stored on the object itself. The
// policy travels with the object so it cannot drift from reality the way a
// side table could.
const (
	metaOwner      = "Acl-Owner"
	metaVisibility = "Acl-Visibility"
)

// Policy is the permanent authorization state attached to a committed object.
// Owner never changes after the first commit.
type Policy struct {
	Owner      string
	Visibility Visibility
}

// Metadata encodes the policy as object-store user metadata.
func (p Policy) Metadata() map[string]string {
	return map[string]string{
		metaOwner:      p.Owner,
		metaVisibility: string(p.Visibility),
	}
}

// PolicyFromMetadata decodes a policy from object-store user metadata.
// Returns ok=false when no policy has been attached. Key lookup is
// canonicalization-tolerant since S3 backends differ in how they return
// x-amz-meta-* header names.
func PolicyFromMetadata(meta map[string]string) (*Policy, bool) {
	owner, ok := metaValue(meta, metaOwner)
	if !ok || owner == "" {
		return nil, false
	}
	vis, _ := metaValue(meta, metaVisibility)
	p := &Policy{Owner: owner, Visibility: Visibility(vis)}
	if p.Visibility != VisibilityPublic && p.Visibility != VisibilityPrivate {
		p.Visibility = VisibilityPrivate
	}
	return p, true
}

func metaValue(meta map[string]string, key string) (string, bool) {
	if v, ok := meta[key]; ok {
		return v, true
	}
	canonical := http.CanonicalHeaderKey(key)
	for k, v := range meta {
		if http.CanonicalHeaderKey(k) == canonical {
			return v, true
		}
	}
	return "", false
}
