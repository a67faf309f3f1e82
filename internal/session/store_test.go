package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/doot/internal/api"
	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/storage"
)

// fakeAPI is a minimal marketplace backend for session tests. Handlers are
// swappable per test; unset routes return 404 with no body, which the seller
// profile fetch treats as "not a seller".
type fakeAPI struct {
	mux *http.ServeMux
	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{mux: http.NewServeMux()}
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handle(pattern string, h http.HandlerFunc) { f.mux.HandleFunc(pattern, h) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testUser() models.User {
	return models.User{ID: 1, Email: "buyer@example.com", FirstName: "Alex", LastName: "Doe"}
}

func newTestSession(t *testing.T, baseURL string) (*Store, *storage.Store) {
	t.Helper()
	st, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := api.New(api.Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Store:   st,
		Logger:  zerolog.Nop(),
	})
	return New(client, st, notify.Nop{}, zerolog.Nop()), st
}

func TestLoginSuccess(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"access":  "acc-1",
			"refresh": "ref-1",
			"user":    testUser(),
		})
	})

	s, st := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, s.Err())
	require.NotNil(t, s.User())
	assert.Equal(t, "buyer@example.com", s.User().Email)

	// All three credentials land in storage together.
	for key, want := range map[string]string{
		storage.KeyAccessToken:  "acc-1",
		storage.KeyRefreshToken: "ref-1",
	} {
		got, ok := st.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got)
	}
	var stored models.User
	ok, err := st.GetJSON(storage.KeyUser, &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), stored.ID)

	// The on-disk snapshot never carries tokens.
	raw, ok := st.Get(storage.KeyAuthSnapshot)
	require.True(t, ok)
	assert.NotContains(t, raw, "acc-1")
	assert.NotContains(t, raw, "ref-1")
}

func TestLoginFailureKeepsServerMessage(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	s, st := newTestSession(t, f.srv.URL)
	require.False(t, s.Login(context.Background(), "buyer@example.com", "wrong"))

	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	assert.Equal(t, "Invalid credentials", s.Err())

	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		_, ok := st.Get(key)
		assert.False(t, ok, "failed login must persist nothing under %s", key)
	}
}

func TestLoginToleratesNestedTokenShape(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"tokens": map[string]string{"access": "acc-2", "refresh": "ref-2"},
			"user":   testUser(),
		})
	})

	s, st := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))

	got, _ := st.Get(storage.KeyAccessToken)
	assert.Equal(t, "acc-2", got)
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Registration successful. Please login.",
			"user":    testUser(),
		})
	})

	s, st := newTestSession(t, f.srv.URL)
	ok := s.Register(context.Background(), api.RegisterData{
		Email: "buyer@example.com", Password: "pw", PasswordConfirm: "pw",
	})
	require.True(t, ok)

	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, s.IsAuthenticated())

	_, hasToken := st.Get(storage.KeyAccessToken)
	assert.False(t, hasToken, "registration issues no tokens")
}

func TestRegisterFailureSurfacesFieldErrors(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Email already registered",
		})
	})

	s, _ := newTestSession(t, f.srv.URL)
	ok := s.Register(context.Background(), api.RegisterData{Email: "dup@example.com"})
	require.False(t, ok)
	assert.Equal(t, "Email already registered", s.Err())
}

func TestLogoutAlwaysSucceedsLocally(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s, st := newTestSession(t, f.srv.URL)
	require.NoError(t, st.SetMany(map[string]string{
		storage.KeyAccessToken:  "acc",
		storage.KeyRefreshToken: "ref",
		storage.KeyUser:         `{"id":1}`,
	}))
	s.Initialize(context.Background())
	require.True(t, s.IsAuthenticated())

	s.Logout(context.Background())

	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		_, ok := st.Get(key)
		assert.False(t, ok, key)
	}
}

func TestInitializeRestoresSession(t *testing.T) {
	f := newFakeAPI(t)
	profile := models.SellerProfile{ID: 10, BusinessName: "Acme"}
	f.handle("/sellers/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, profile)
	})

	s, st := newTestSession(t, f.srv.URL)
	require.NoError(t, st.SetJSON(storage.KeyUser, testUser()))
	require.NoError(t, st.Set(storage.KeyAccessToken, "acc"))
	require.NoError(t, st.Set(storage.KeyRefreshToken, "ref"))

	s.Initialize(context.Background())

	assert.True(t, s.IsAuthenticated())
	require.NotNil(t, s.User())
	assert.Equal(t, "buyer@example.com", s.User().Email)
	require.NotNil(t, s.SellerProfile())
	assert.Equal(t, "Acme", s.SellerProfile().BusinessName)
	assert.True(t, s.SellerChecked())
}

func TestInitializeWithoutCredentialsIsAnonymous(t *testing.T) {
	f := newFakeAPI(t)
	s, _ := newTestSession(t, f.srv.URL)

	s.Initialize(context.Background())

	assert.Equal(t, StateAnonymous, s.State())
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.Err())
}

func TestInitializeWithUserButNoTokenIsAnonymous(t *testing.T) {
	f := newFakeAPI(t)
	s, st := newTestSession(t, f.srv.URL)
	require.NoError(t, st.SetJSON(storage.KeyUser, testUser()))

	s.Initialize(context.Background())
	assert.Equal(t, StateAnonymous, s.State())
}

func TestMissingSellerProfileIsNotAFailure(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"access": "acc", "refresh": "ref", "user": testUser(),
		})
	})
	f.handle("/sellers/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Seller profile not found"})
	})

	s, _ := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))

	assert.True(t, s.IsAuthenticated(), "a 404 profile never demotes the session")
	assert.Nil(t, s.SellerProfile())
	assert.True(t, s.SellerChecked(), "absence is confirmed, not unknown")
}

func TestUpdateProfileReplacesUserWholesale(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"access": "acc", "refresh": "ref", "user": testUser(),
		})
	})
	f.handle("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		updated := testUser()
		updated.FirstName = "Sam"
		updated.PhoneNumber = "+1234567"
		writeJSON(w, 200, updated)
	})

	s, st := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))

	first := "Sam"
	require.True(t, s.UpdateProfile(context.Background(), api.ProfileUpdate{FirstName: &first}))

	assert.Equal(t, "Sam", s.User().FirstName)
	assert.Equal(t, "+1234567", s.User().PhoneNumber, "server record wins, not a client-side merge")

	var stored models.User
	_, err := st.GetJSON(storage.KeyUser, &stored)
	require.NoError(t, err)
	assert.Equal(t, "Sam", stored.FirstName)
}

func TestOperationFailureKeepsIdentity(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"access": "acc", "refresh": "ref", "user": testUser(),
		})
	})
	f.handle("/auth/password/change", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Old password is incorrect"})
	})

	s, _ := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))

	require.False(t, s.ChangePassword(context.Background(), "wrong", "new", "new"))
	assert.Equal(t, "Old password is incorrect", s.Err())
	assert.True(t, s.IsAuthenticated(), "a failed operation never logs the user out")

	s.ClearError()
	assert.Empty(t, s.Err())
}

func TestCreateSellerProfile(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"access": "acc", "refresh": "ref", "user": testUser(),
		})
	})
	created := false
	f.handle("/sellers/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			created = true
			writeJSON(w, http.StatusCreated, models.SellerProfile{ID: 10, BusinessName: "Acme"})
		default:
			if !created {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "Seller profile not found"})
				return
			}
			writeJSON(w, 200, models.SellerProfile{ID: 10, BusinessName: "Acme"})
		}
	})

	s, _ := newTestSession(t, f.srv.URL)
	require.True(t, s.Login(context.Background(), "buyer@example.com", "pw"))
	require.Nil(t, s.SellerProfile())

	ok := s.CreateSellerProfile(context.Background(), api.SellerProfileInput{BusinessName: "Acme"})
	require.True(t, ok)
	require.NotNil(t, s.SellerProfile())
	assert.Equal(t, "Acme", s.SellerProfile().BusinessName)
	assert.True(t, s.SellerChecked())
}

func TestExpiredSessionDropsToAnonymous(t *testing.T) {
	f := newFakeAPI(t)
	f.handle("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.handle("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	st, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	client := api.New(api.Options{
		BaseURL: f.srv.URL,
		Timeout: 5 * time.Second,
		Store:   st,
		Logger:  zerolog.Nop(),
	})
	s := New(client, st, notify.Nop{}, zerolog.Nop())

	require.NoError(t, st.SetMany(map[string]string{
		storage.KeyAccessToken:  "acc",
		storage.KeyRefreshToken: "dead",
		storage.KeyUser:         `{"id":1,"email":"buyer@example.com"}`,
	}))

	// Any authenticated call through the client now hits the dead refresh
	// token; the expiry hook must demote this store.
	_, err = client.Profile(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	_, ok := st.Get(storage.KeyAccessToken)
	assert.False(t, ok)
}
