package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

const seed = `
users:
  - id: "1"
    login: host
    secret: host-secret
  - id: "2"
    login: alice
    display_name: Alice
    country_code: FR
    profile_image_url: https://img/alice.png
    secret: alice-secret
`

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(seed))
	require.NoError(t, err)
	ctx := context.Background()

	u, err := s.UserByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.User{
		ID:              "2",
		Login:           "alice",
		DisplayName:     "Alice",
		CountryCode:     "FR",
		ProfileImageURL: "https://img/alice.png",
		Secret:          "alice-secret",
	}, *u)

	u, err = s.UserByLogin(ctx, "host")
	require.NoError(t, err)
	assert.Equal(t, "host", u.DisplayName, "display name defaults to login")

	u, err = s.UserBySecret(ctx, "host-secret")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("1"), u.ID)

	_, err = s.UserByLogin(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.UserBySecret(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLoadEmpty(t *testing.T) {
	s, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	_, err = s.UserByID(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "users: [ {"},
		{"missing login", "users:\n  - id: \"1\"\n"},
		{"duplicate login", "users:\n  - {id: \"1\", login: a}\n  - {id: \"2\", login: a}\n"},
		{"duplicate secret", "users:\n  - {id: \"1\", login: a, secret: s}\n  - {id: \"2\", login: b, secret: s}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestPutReplacesIndexes(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	require.NoError(t, s.Put(domain.User{ID: "1", Login: "old", Secret: "s1"}))
	require.NoError(t, s.Put(domain.User{ID: "1", Login: "new", Secret: "s2"}))

	_, err := s.UserByLogin(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.UserBySecret(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	u, err := s.UserBySecret(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "new", u.Login)
}

func TestLookupReturnsCopy(t *testing.T) {
	s := NewUserStore()
	require.NoError(t, s.Put(domain.User{ID: "1", Login: "host"}))

	u, err := s.UserByID(context.Background(), "1")
	require.NoError(t, err)
	u.Login = "changed"

	again, err := s.UserByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "host", again.Login)
}
