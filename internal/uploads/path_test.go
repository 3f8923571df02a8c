package uploads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "d5f9b1ce-0707-4fe4-8734-526b7ef13a7b"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "path-style presigned URL",
			raw:  "http://localhost:9000/site-assets/uploads/" + testID + "?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Signature=abc",
			want: CanonicalPrefix + testID,
			ok:   true,
		},
		{
			name: "virtual-host-style presigned URL",
			raw:  "https://site-assets.s3.example.com/uploads/" + testID + "?X-Amz-Signature=abc",
			want: CanonicalPrefix + testID,
			ok:   true,
		},
		{
			name: "already canonical",
			raw:  CanonicalPrefix + testID,
			want: CanonicalPrefix + testID,
			ok:   true,
		},
		{
			name: "bare storage path",
			raw:  "/site-assets/uploads/" + testID,
			want: CanonicalPrefix + testID,
			ok:   true,
		},
		{name: "out-of-namespace sibling", raw: "/objects/other/x"},
		{name: "out-of-namespace bucket path", raw: "/site-assets/avatars/" + testID},
		{name: "too deeply nested", raw: "/a/b/uploads/" + testID},
		{name: "uploads as leaf", raw: "/objects/uploads"},
		{name: "relative path", raw: "uploads/" + testID},
		{name: "empty", raw: ""},
		{name: "unparseable URL", raw: "http://%zz/uploads/" + testID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.raw)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectID(t *testing.T) {
	id, err := ObjectID(CanonicalPrefix + testID)
	require.NoError(t, err)
	assert.Equal(t, testID, id)

	for _, canonical := range []string{
		CanonicalPrefix + "not-a-uuid",
		CanonicalPrefix,
		CanonicalPrefix + testID + "/extra",
		"/elsewhere/" + testID,
	} {
		_, err := ObjectID(canonical)
		assert.ErrorIs(t, err, ErrInvalidPath, "canonical %q", canonical)
	}
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "uploads/"+testID, StorageKey(testID))
}
