// Package session is the single source of truth for "who is using this
// client". It drives the Unknown → Loading → Authenticated/Anonymous state
// machine, persists a safe snapshot of it, and converts every failure into a
// stored error string plus a boolean outcome so the page layer never handles
// exceptions.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/doot/internal/api"
	"github.com/example/doot/internal/models"
	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/storage"
)

// State is the session lifecycle state.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// snapshot is the persisted subset of session state. Tokens deliberately live
// under their own storage keys, never inside this snapshot.
type snapshot struct {
	User            *models.User          `json:"user"`
	SellerProfile   *models.SellerProfile `json:"seller_profile"`
	IsAuthenticated bool                  `json:"is_authenticated"`
}

// Store holds the authenticated identity and exposes the session operations.
type Store struct {
	client   *api.Client
	storage  *storage.Store
	notifier notify.Notifier
	log      zerolog.Logger

	mu            sync.RWMutex
	state         State
	user          *models.User
	sellerProfile *models.SellerProfile
	sellerChecked bool
	err           string
}

// New constructs a session store and registers it as the client's
// session-expired handler: a failed token refresh anywhere drops this store
// back to Anonymous.
func New(client *api.Client, st *storage.Store, notifier notify.Notifier, log zerolog.Logger) *Store {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Store{
		client:   client,
		storage:  st,
		notifier: notifier,
		log:      log,
		state:    StateUnknown,
	}
	client.OnSessionExpired(s.expire)
	return s
}

// Initialize restores the session from durable storage on startup. A stored
// user plus access token authenticates optimistically; the seller profile is
// then revalidated. Initialize never fails: any problem ends in Anonymous.
func (s *Store) Initialize(ctx context.Context) {
	s.begin()

	var user models.User
	ok, err := s.storage.GetJSON(storage.KeyUser, &user)
	token, _ := s.storage.Get(storage.KeyAccessToken)
	if err != nil || !ok || token == "" {
		if err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable stored user")
		}
		s.toAnonymous("")
		return
	}

	s.mu.Lock()
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.fetchSellerProfile(ctx)
	s.finish()
}

// Login authenticates and, on success, persists user and both tokens
// atomically before fetching the seller profile best-effort.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.begin()

	result, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.toAnonymous(loginFailureMessage(err))
		return false
	}

	if err := s.persistCredentials(&result.User, result.Access, result.Refresh); err != nil {
		s.log.Error().Err(err).Msg("failed to persist credentials")
		s.toAnonymous("Login failed")
		return false
	}

	s.mu.Lock()
	s.user = &result.User
	s.state = StateAuthenticated
	s.sellerProfile = nil
	s.sellerChecked = false
	s.mu.Unlock()

	s.fetchSellerProfile(ctx)
	s.finish()
	s.notifier.Success("Login successful!")
	return true
}

// Register creates an account. By design it does not authenticate: the user
// logs in explicitly afterwards.
func (s *Store) Register(ctx context.Context, data api.RegisterData) bool {
	s.begin()

	result, err := s.client.Register(ctx, data)
	if err != nil {
		s.setError(messageOr(err, "Registration failed"))
		return false
	}

	s.mu.Lock()
	s.user = &result.User
	s.state = StateAnonymous
	s.err = ""
	s.mu.Unlock()

	s.saveSnapshot()
	s.notifier.Success("Registration successful! Please login.")
	return true
}

// Logout invalidates the session server-side best-effort, then clears all
// persisted credentials and in-memory state. It always succeeds locally.
func (s *Store) Logout(ctx context.Context) {
	s.begin()

	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("server-side logout failed, clearing locally")
	}

	if err := s.storage.DeleteMany(storage.KeyUser, storage.KeyAccessToken, storage.KeyRefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed to clear stored credentials")
	}

	s.mu.Lock()
	s.user = nil
	s.sellerProfile = nil
	s.sellerChecked = false
	s.state = StateAnonymous
	s.err = ""
	s.mu.Unlock()

	s.saveSnapshot()
	s.notifier.Success("Logged out successfully")
}

// UpdateProfile applies a partial update. The server's returned record
// replaces the in-memory user wholesale; no client-side merging.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) bool {
	s.begin()

	user, err := s.client.UpdateProfile(ctx, update)
	if err != nil {
		s.setError(messageOr(err, "Profile update failed"))
		return false
	}

	if err := s.storage.SetJSON(storage.KeyUser, user); err != nil {
		s.log.Error().Err(err).Msg("failed to persist updated user")
	}

	s.mu.Lock()
	s.user = user
	s.state = StateAuthenticated
	s.err = ""
	s.mu.Unlock()

	s.saveSnapshot()
	s.notifier.Success("Profile updated successfully")
	return true
}

// ChangePassword rotates the account password.
func (s *Store) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) bool {
	s.begin()
	if err := s.client.ChangePassword(ctx, oldPassword, newPassword, confirm); err != nil {
		s.setError(messageOr(err, "Password change failed"))
		return false
	}
	s.finish()
	s.notifier.Success("Password changed successfully")
	return true
}

// RequestPasswordReset starts the forgot-password flow.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) bool {
	s.begin()
	if err := s.client.RequestPasswordReset(ctx, email); err != nil {
		s.setError(messageOr(err, "Password reset request failed"))
		return false
	}
	s.finish()
	return true
}

// ConfirmPasswordReset completes the forgot-password flow.
func (s *Store) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirm string) bool {
	s.begin()
	if err := s.client.ConfirmPasswordReset(ctx, token, newPassword, confirm); err != nil {
		s.setError(messageOr(err, "Password reset failed"))
		return false
	}
	s.finish()
	return true
}

// CreateSellerProfile elevates the user to seller status.
func (s *Store) CreateSellerProfile(ctx context.Context, input api.SellerProfileInput) bool {
	s.begin()

	profile, err := s.client.CreateSellerProfile(ctx, input)
	if err != nil {
		s.setError(messageOr(err, "Seller profile creation failed"))
		return false
	}

	s.mu.Lock()
	s.sellerProfile = profile
	s.sellerChecked = true
	s.err = ""
	s.mu.Unlock()

	s.finish()
	s.saveSnapshot()
	s.notifier.Success("Seller profile created successfully")
	return true
}

// UpdateSellerProfile updates the business identity.
func (s *Store) UpdateSellerProfile(ctx context.Context, input api.SellerProfileInput) bool {
	s.begin()

	profile, err := s.client.UpdateSellerProfile(ctx, input)
	if err != nil {
		s.setError(messageOr(err, "Seller profile update failed"))
		return false
	}

	s.mu.Lock()
	s.sellerProfile = profile
	s.sellerChecked = true
	s.err = ""
	s.mu.Unlock()

	s.finish()
	s.saveSnapshot()
	return true
}

// GetSellerProfile refreshes the seller profile. Failure is never an
// authentication problem: it confirms the user has no profile.
func (s *Store) GetSellerProfile(ctx context.Context) {
	s.fetchSellerProfile(ctx)
	s.saveSnapshot()
}

// ClearError discards the stored error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the current user, nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SellerProfile returns the confirmed seller profile, nil when the user has
// none (or it has not been checked yet; see SellerChecked).
func (s *Store) SellerProfile() *models.SellerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sellerProfile
}

// SellerChecked reports whether a nil SellerProfile means "confirmed: not a
// seller" rather than "not fetched yet".
func (s *Store) SellerChecked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sellerChecked
}

// IsAuthenticated reports whether a valid credential is in place.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated
}

// IsLoading reports whether an operation is in flight and protected content
// must not render yet.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateLoading || s.state == StateUnknown
}

// Err returns the current user-facing error message, empty when none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// persistCredentials writes user, access and refresh tokens in one
// transaction: all three or none.
func (s *Store) persistCredentials(user *models.User, access, refresh string) error {
	userJSON, err := encodeJSON(user)
	if err != nil {
		return err
	}
	return s.storage.SetMany(map[string]string{
		storage.KeyUser:         userJSON,
		storage.KeyAccessToken:  access,
		storage.KeyRefreshToken: refresh,
	})
}

// fetchSellerProfile loads the seller profile, mapping any failure to a
// confirmed-absent profile. Must be called without the lock held.
func (s *Store) fetchSellerProfile(ctx context.Context) {
	profile, err := s.client.SellerProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Debug().Err(err).Msg("no seller profile found")
		s.sellerProfile = nil
		s.sellerChecked = true
		return
	}
	s.sellerProfile = profile
	s.sellerChecked = true
}

// expire is the client's session-expired hook: refresh failed, credentials
// are already cleared, drop to Anonymous.
func (s *Store) expire() {
	s.mu.Lock()
	s.user = nil
	s.sellerProfile = nil
	s.sellerChecked = false
	s.state = StateAnonymous
	s.mu.Unlock()
	s.saveSnapshot()
	s.log.Info().Msg("session expired")
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.mu.Unlock()
}

// finish returns the store to the authenticated/anonymous terminal state
// after a loading phase, based on whether a user is present.
func (s *Store) finish() {
	s.mu.Lock()
	if s.user != nil && s.state == StateLoading {
		s.state = StateAuthenticated
	} else if s.state == StateLoading {
		s.state = StateAnonymous
	}
	s.mu.Unlock()
	s.saveSnapshot()
}

func (s *Store) toAnonymous(errMsg string) {
	s.mu.Lock()
	s.user = nil
	s.sellerProfile = nil
	s.sellerChecked = false
	s.state = StateAnonymous
	s.err = errMsg
	s.mu.Unlock()
	s.saveSnapshot()
}

// setError records a failure without touching the identity: the operation
// failed but whoever was logged in stays logged in.
func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	if s.state == StateLoading {
		if s.user != nil {
			s.state = StateAuthenticated
		} else {
			s.state = StateAnonymous
		}
	}
	s.mu.Unlock()
}

func (s *Store) saveSnapshot() {
	s.mu.RLock()
	snap := snapshot{
		User:            s.user,
		SellerProfile:   s.sellerProfile,
		IsAuthenticated: s.state == StateAuthenticated,
	}
	s.mu.RUnlock()

	if err := s.storage.SetJSON(storage.KeyAuthSnapshot, snap); err != nil {
		s.log.Error().Err(err).Msg("failed to persist auth snapshot")
	}
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func loginFailureMessage(err error) string {
	return messageOr(err, "Login failed")
}

func messageOr(err error, fallback string) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return fallback
}
