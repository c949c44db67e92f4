package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthService_SyncUser(t *testing.T) {
	svc := NewAuthService(newTestDB(t))
	s := Session{UserID: "user_1", OrganizationID: "org_a"}

	_, err := svc.Me(s)
	requireAppError(t, err, http.StatusNotFound, "User not found")

	user, err := svc.SyncUser(s, &SyncUserRequest{Email: " Alice@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.Nil(t, user.Name)

	name := "Alice"
	again, err := svc.SyncUser(s, &SyncUserRequest{Email: "alice@example.com", Name: &name})
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID, "sync updates the existing projection")
	require.Equal(t, "Alice", *again.Name)

	me, err := svc.Me(s)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)

	_, err = svc.SyncUser(Session{UserID: "user_2", OrganizationID: "org_a"}, &SyncUserRequest{Email: "alice@example.com"})
	requireAppError(t, err, http.StatusConflict, "email already belongs to another account")

	_, err = svc.SyncUser(Session{}, &SyncUserRequest{Email: "x@example.com"})
	requireAppError(t, err, http.StatusUnauthorized, "Unauthorized")
}
