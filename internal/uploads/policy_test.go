package uploads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFromMetadata(t *testing.T) {
	meta := Policy{Owner: "user-1", Visibility: VisibilityPublic}.Metadata()

	p, ok := PolicyFromMetadata(meta)
	require.True(t, ok)
	assert.Equal(t, "user-1", p.Owner)
	assert.Equal(t, VisibilityPublic, p.Visibility)
}

func TestPolicyFromMetadataLowercaseKeys(t *testing.T) {
	// Some S3 backends hand user metadata back with lowercased header names.
	p, ok := PolicyFromMetadata(map[string]string{
		"acl-owner":      "user-1",
		"acl-visibility": "private",
	})
	require.True(t, ok)
	assert.Equal(t, "user-1", p.Owner)
	assert.Equal(t, VisibilityPrivate, p.Visibility)
}

func TestPolicyFromMetadataAbsent(t *testing.T) {
	for _, meta := range []map[string]string{
		nil,
		{},
		{"Content-Disposition": "inline"},
		{"Acl-Visibility": "public"}, // visibility without owner is no policy
	} {
		_, ok := PolicyFromMetadata(meta)
		assert.False(t, ok)
	}
}

func TestPolicyFromMetadataUnknownVisibilityIsPrivate(t *testing.T) {
	p, ok := PolicyFromMetadata(map[string]string{
		"Acl-Owner":      "user-1",
		"Acl-Visibility": "everyone",
	})
	require.True(t, ok)
	assert.Equal(t, VisibilityPrivate, p.Visibility)
}
