package identity

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(secret, Identity{UserID: "u-1", Role: RoleDeveloper}, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Role: RoleDeveloper}, claims.Identity())
	assert.Equal(t, "u-1", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken(secret, Identity{UserID: "u-1", Role: RoleAdmin}, time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	foreign, err := IssueToken([]byte("other"), Identity{UserID: "u-1", Role: RoleAdmin}, time.Hour, time.Now())
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"expired": expired,
		"foreign": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(secret, tok)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestIssueToken_Validation(t *testing.T) {
	_, err := IssueToken(secret, Identity{Role: RoleAdmin}, time.Hour, time.Now())
	assert.Error(t, err)
	_, err = IssueToken(secret, Identity{UserID: "u", Role: "root"}, time.Hour, time.Now())
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}

func TestHeadersRoundTrip(t *testing.T) {
	h := http.Header{}
	_, err := FromHeaders(h)
	assert.ErrorIs(t, err, ErrMissingIdentity)

	SetHeaders(h, Identity{UserID: "admin-1", Role: RoleAdmin})
	id, err := FromHeaders(h)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	h.Set(HeaderUserRole, "owner")
	_, err = FromHeaders(h)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "d", Role: RoleDeveloper})
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.True(t, id.IsDeveloper())
}
