package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyAccessToken, "token-1"))
	value, ok := s.Get(KeyAccessToken)
	require.True(t, ok)
	assert.Equal(t, "token-1", value)

	require.NoError(t, s.Set(KeyAccessToken, "token-2"))
	value, _ = s.Get(KeyAccessToken)
	assert.Equal(t, "token-2", value)
}

func TestSetManyWritesAllKeys(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetMany(map[string]string{
		KeyAccessToken:  "access",
		KeyRefreshToken: "refresh",
		KeyUser:         `{"id":1}`,
	}))

	for key, want := range map[string]string{
		KeyAccessToken:  "access",
		KeyRefreshToken: "refresh",
		KeyUser:         `{"id":1}`,
	} {
		got, ok := s.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got)
	}
}

func TestDeleteMany(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyAccessToken, "a"))
	require.NoError(t, s.Set(KeyRefreshToken, "r"))
	require.NoError(t, s.Set(KeyCartSnapshot, "{}"))

	require.NoError(t, s.DeleteMany(KeyAccessToken, KeyRefreshToken))

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok)
	_, ok = s.Get(KeyRefreshToken)
	assert.False(t, ok)
	_, ok = s.Get(KeyCartSnapshot)
	assert.True(t, ok, "unrelated key must survive")
}

func TestDeleteMissingKeyIsNoError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete("never-set"))
	assert.NoError(t, s.DeleteMany("also-never-set"))
}

func TestJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, s.SetJSON("payload", payload{Name: "cart", Count: 3}))

	var got payload
	ok, err := s.GetJSON("payload", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "cart", Count: 3}, got)
}

func TestGetJSONMissingKey(t *testing.T) {
	s := newTestStore(t)

	var got map[string]string
	ok, err := s.GetJSON("missing", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSONCorruptValue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("bad", "{not json"))

	var got map[string]string
	ok, err := s.GetJSON("bad", &got)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "doot.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyUser, `{"id":7}`))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok := reopened.Get(KeyUser)
	require.True(t, ok)
	assert.Equal(t, `{"id":7}`, value)
}
