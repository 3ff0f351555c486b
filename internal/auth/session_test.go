package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousSession(t *testing.T) {
	var zero Session
	_, ok := zero.User()
	assert.False(t, ok)
	assert.Equal(t, "anonymous", zero.OwnerKey())

	_, ok = Anonymous().User()
	assert.False(t, ok)
}

func TestFromConfig(t *testing.T) {
	sess, err := FromConfig("6401234", "Somchai", "somchai@example.ac.th", "", "tok")
	require.NoError(t, err)

	u, ok := sess.User()
	require.True(t, ok)
	assert.Equal(t, RoleStudent, u.Role)
	assert.Equal(t, "6401234", sess.OwnerKey())
	assert.Equal(t, "tok", sess.Token())

	sess, err = FromConfig("", "", "", "", "tok-only")
	require.NoError(t, err)
	_, ok = sess.User()
	assert.False(t, ok)
	assert.Equal(t, "tok-only", sess.Token())

	_, err = FromConfig("1", "x", "", "dean", "")
	assert.Error(t, err)
}

func TestOwnerKeyFallsBackToName(t *testing.T) {
	sess := NewSession(User{Name: "Malee"}, "")
	assert.Equal(t, "Malee", sess.OwnerKey())
}
