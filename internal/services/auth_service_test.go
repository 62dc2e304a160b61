package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentspace/internal/domain"
	"rentspace/internal/repos"
	"rentspace/internal/services"
)

func newAuth(t *testing.T) *services.AuthService {
	t.Helper()
	return services.NewAuthService(repos.NewUserRepo(memdb(t)), "test-secret", time.Hour)
}

func TestSignUp_Validation(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	good := services.SignUpInput{Email: "meera@example.test", Name: "Meera", Password: "Str0ng!pass", Role: domain.RoleTenant}

	cases := map[string]func(*services.SignUpInput){
		"email":    func(in *services.SignUpInput) { in.Email = "meera@" },
		"name":     func(in *services.SignUpInput) { in.Name = "" },
		"password": func(in *services.SignUpInput) { in.Password = "weakpass" },
		"role":     func(in *services.SignUpInput) { in.Role = "admin" },
	}
	for field, mutate := range cases {
		in := good
		mutate(&in)
		_, err := auth.SignUp(ctx, in)
		var ve *services.ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}

	u, err := auth.SignUp(ctx, good)
	require.NoError(t, err)
	assert.NotEqual(t, good.Password, u.Hash)

	dup := good
	dup.Email = "MEERA@example.test"
	_, err = auth.SignUp(ctx, dup)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestSignIn_TokenCarriesSession(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	_, _, err := auth.SignIn(ctx, "", "asha@rentspace.test", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, _, err = auth.SignIn(ctx, "", "nobody@rentspace.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	id, tok, err := auth.SignIn(ctx, "", "Asha@RentSpace.test", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "u-asha", id.UserID)
	assert.True(t, id.IsLandlord())

	sid, err := auth.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id.SessionID, sid)

	cur, err := auth.CurrentUser(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "u-asha", cur.UserID)

	require.NoError(t, auth.SignOut(ctx, sid))
	_, err = auth.CurrentUser(ctx, sid)
	assert.ErrorIs(t, err, services.ErrAuthRequired)
}

func TestSignIn_IgnoresClientChosenSession(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	first, _, err := auth.SignIn(ctx, "", "neha@rentspace.test", "Passw0rd!")
	require.NoError(t, err)

	id, _, err := auth.SignIn(ctx, first.SessionID, "asha@rentspace.test", "Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, id.SessionID)
	_, err = auth.CurrentUser(ctx, first.SessionID)
	assert.ErrorIs(t, err, services.ErrAuthRequired, "the previous session is dropped")

	id, _, err = auth.SignIn(ctx, "planted-sid", "asha@rentspace.test", "Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "planted-sid", id.SessionID)
	_, err = auth.CurrentUser(ctx, "planted-sid")
	assert.ErrorIs(t, err, services.ErrAuthRequired)
}

func TestCurrentUser_SessionExpiresWithTTL(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	id, _, err := auth.SignIn(ctx, "", "asha@rentspace.test", "Passw0rd!")
	require.NoError(t, err)

	auth.Now = func() time.Time { return time.Now().Add(30 * time.Minute) }
	_, err = auth.CurrentUser(ctx, id.SessionID)
	require.NoError(t, err)

	auth.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.CurrentUser(ctx, id.SessionID)
	assert.ErrorIs(t, err, services.ErrAuthRequired)
}

func TestParseToken_RejectsExpiredAndForeign(t *testing.T) {
	auth := newAuth(t)
	id := &domain.Identity{UserID: "u-neha", Role: domain.RoleTenant, SessionID: "sid-9"}
	tok, err := auth.IssueToken(id)
	require.NoError(t, err)

	auth.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.ParseToken(tok)
	assert.ErrorIs(t, err, services.ErrAuthRequired)

	other := newAuth(t)
	other.Secret = []byte("another-secret")
	foreign, err := other.IssueToken(id)
	require.NoError(t, err)
	auth.Now = nil
	_, err = auth.ParseToken(foreign)
	assert.ErrorIs(t, err, services.ErrAuthRequired)
}
