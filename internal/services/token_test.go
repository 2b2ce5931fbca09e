package services

import (
	"testing"
	"time"

	"github.com/localnerve/homespace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	user := &models.User{ID: "user-1"}

	token, expires, err := svc.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestTokenRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _, err := svc.Issue(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Parse(token)
	assert.Error(t, err)

	_, err = svc.Parse("not-a-token")
	assert.Error(t, err)

	// Expired
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Parse(token)
	assert.Error(t, err)
}
