package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/davemarchant/tienda-go/session"
	"github.com/davemarchant/tienda-go/store"
	"github.com/davemarchant/tienda-go/users"
)

func testUser() users.User {
	return users.User{
		ID:        3,
		FirstName: "Ana",
		LastName:  "García",
		Email:     "ana@example.com",
		Role:      users.RoleClient,
	}
}

func TestEstablishAndQuery(t *testing.T) {
	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	require.False(t, sess.Authenticated())
	require.Empty(t, sess.Token())
	require.Nil(t, sess.User())
	require.Zero(t, sess.UserID())

	sess.Establish(testUser(), "token-abc")

	require.True(t, sess.Authenticated())
	require.Equal(t, "token-abc", sess.Token())
	require.Equal(t, int64(3), sess.UserID())
	require.Equal(t, "Ana García", sess.User().FullName())
	require.False(t, sess.IsAdmin())
}

func TestSessionSurvivesRestart(t *testing.T) {
	st := store.NewMemoryStore()
	first := session.New(st, zerolog.Nop())
	first.Establish(testUser(), "token-abc")

	second := session.New(st, zerolog.Nop())

	require.True(t, second.Authenticated())
	require.Equal(t, "token-abc", second.Token())
	require.Equal(t, "ana@example.com", second.User().Email)
}

func TestClearRemovesPersistedState(t *testing.T) {
	st := store.NewMemoryStore()
	sess := session.New(st, zerolog.Nop())
	sess.Establish(testUser(), "token-abc")

	sess.Clear()

	require.False(t, sess.Authenticated())
	require.Empty(t, sess.Token())
	_, err := st.Get(store.KeyUser)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(store.KeyToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.False(t, session.New(st, zerolog.Nop()).Authenticated())
}

func TestMalformedPersistedUserIsDiscarded(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(store.KeyUser, []byte("{broken")))
	require.NoError(t, st.Set(store.KeyToken, []byte("token-abc")))

	sess := session.New(st, zerolog.Nop())

	require.False(t, sess.Authenticated())
	require.Empty(t, sess.Token())
}

func TestSetTokenKeepsUser(t *testing.T) {
	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	sess.Establish(testUser(), "old-token")

	sess.SetToken("new-token")

	require.Equal(t, "new-token", sess.Token())
	require.Equal(t, int64(3), sess.UserID())
}

func TestUpdateUserKeepsToken(t *testing.T) {
	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	sess.Establish(testUser(), "token-abc")

	updated := testUser()
	updated.FirstName = "Anita"
	sess.UpdateUser(updated)

	require.Equal(t, "token-abc", sess.Token())
	require.Equal(t, "Anita García", sess.User().FullName())
}

func TestIsAdmin(t *testing.T) {
	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	admin := testUser()
	admin.Role = users.RoleAdministrator
	sess.Establish(admin, "token-abc")

	require.True(t, sess.IsAdmin())
}

func TestTokenExpiresAt(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "3",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	sess.Establish(testUser(), signed)

	got, ok := sess.TokenExpiresAt()
	require.True(t, ok)
	require.True(t, got.Equal(exp))

	t.Run("no exp claim", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "3"}).
			SignedString([]byte("test-secret"))
		require.NoError(t, err)
		sess.SetToken(signed)

		_, ok := sess.TokenExpiresAt()
		require.False(t, ok)
	})

	t.Run("opaque token", func(t *testing.T) {
		sess.SetToken("not-a-jwt")

		_, ok := sess.TokenExpiresAt()
		require.False(t, ok)
	})

	t.Run("signed out", func(t *testing.T) {
		sess.Clear()

		_, ok := sess.TokenExpiresAt()
		require.False(t, ok)
	})
}
