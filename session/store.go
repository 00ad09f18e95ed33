// Package session holds one app's authentication state: the token pair, the
// fetched user profile, and an explicit state machine over both. The store
// is the only writer of that state; every mutation is serialized and tagged
// with a generation so a slow network response can never resurrect a session
// that was logged out or expired while it was in flight.
package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hubcentral/go-session-hub/authclient"
	"github.com/hubcentral/go-session-hub/nav"
	"github.com/hubcentral/go-session-hub/notify"
	"github.com/hubcentral/go-session-hub/session/tokenrecord"
)

// AuthAPI is the slice of the central auth API the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*authclient.TokenPair, error)
	LoginOTP(ctx context.Context, email, password, otpCode string) (*authclient.TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (*authclient.Profile, error)
	Refresh(ctx context.Context, refreshToken string) (*authclient.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

var _ AuthAPI = (*authclient.Client)(nil)

// Credentials are what the login form collects. The OTP code is only needed
// for accounts with MFA enabled.
type Credentials struct {
	Email    string
	Password string
	OTPCode  string
}

// Config locates the central login page and the app's own landing route.
type Config struct {
	// LoginURL is the central login page. For feature apps this is a full
	// cross-origin URL; for the hub itself it is an in-app path.
	LoginURL string

	// LandingPath is the default authenticated route used when no
	// redirect parameter is present.
	LandingPath string
}

// Store is one app's session.
type Store struct {
	api       AuthAPI
	record    tokenrecord.Repo
	navigator nav.Navigator
	notifier  notify.Notifier
	config    Config
	log       zerolog.Logger

	mu           sync.Mutex
	state        State
	accessToken  string
	refreshToken string
	profile      *authclient.Profile
	generation   uint64
}

type Option func(*Store)

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = notifier
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New builds a Store. The API client, the persisted record repo, and a
// navigator are required.
func New(api AuthAPI, record tokenrecord.Repo, navigator nav.Navigator, config Config, options ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("[session.New] api is required")
	}
	if record == nil {
		return nil, errors.New("[session.New] record repo is required")
	}
	if navigator == nil {
		return nil, errors.New("[session.New] navigator is required")
	}
	if config.LoginURL == "" {
		return nil, errors.New("[session.New] config.LoginURL is required")
	}
	if config.LandingPath == "" {
		return nil, errors.New("[session.New] config.LandingPath is required")
	}

	s := &Store{
		api:       api,
		record:    record,
		navigator: navigator,
		config:    config,
		log:       zerolog.Nop(),
		state:     Anonymous,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.log)
	}
	return s, nil
}

// State returns the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated is true only when both a token and a fetched profile are
// present.
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Token returns the held access token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// Profile returns the fetched profile, or nil.
func (s *Store) Profile() *authclient.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Restore initializes the session from the persisted record on app boot.
// A missing or incompatible record leaves the session Anonymous.
func (s *Store) Restore(ctx context.Context) error {
	record, err := s.record.Load(ctx)
	if err != nil {
		if errors.Is(err, tokenrecord.ErrNotFound) || errors.Is(err, tokenrecord.ErrVersionMismatch) {
			return nil
		}
		return errors.Wrap(err, "[Store.Restore] record.Load")
	}
	if record.AccessToken == "" {
		return nil
	}

	s.mu.Lock()
	s.generation++
	s.accessToken = record.AccessToken
	s.refreshToken = record.RefreshToken
	s.profile = nil
	s.state = Authenticating
	s.mu.Unlock()

	return s.FetchUser(ctx)
}

// Login exchanges credentials for a token pair, persists it, fetches the
// profile, and applies the post-login redirect policy. It reports success as
// a boolean and never raises: a failed login clears all session fields and
// surfaces exactly one negative notification.
func (s *Store) Login(ctx context.Context, credentials Credentials) bool {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.state = Authenticating
	s.mu.Unlock()

	var pair *authclient.TokenPair
	var err error
	if credentials.OTPCode != "" {
		pair, err = s.api.LoginOTP(ctx, credentials.Email, credentials.Password, credentials.OTPCode)
	} else {
		pair, err = s.api.Login(ctx, credentials.Email, credentials.Password)
	}
	if err != nil {
		s.resetToAnonymous(ctx, generation)
		if errors.Is(err, authclient.ErrMFARequired) {
			s.notifier.Negative("A verification code is required to sign in.")
		} else {
			s.notifier.Negative("Invalid email or password.")
		}
		s.log.Debug().Err(err).Msg("login rejected")
		return false
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return false
	}
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()

	if err := s.record.Save(ctx, &tokenrecord.Record{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token record")
	}

	if err := s.FetchUser(ctx); err != nil {
		s.log.Warn().Err(err).Msg("post-login profile fetch failed")
	}
	if s.Token() == "" {
		// The profile fetch expired the brand-new session.
		return false
	}

	s.redirectAfterLogin()
	return true
}

// FetchUser requests the current-user resource and replaces the stored
// profile wholesale. Without a token it is a no-op. Only an unauthorized
// rejection expires the session; transient failures leave state untouched.
func (s *Store) FetchUser(ctx context.Context) error {
	s.mu.Lock()
	if s.accessToken == "" {
		s.mu.Unlock()
		return nil
	}
	generation := s.generation
	accessToken := s.accessToken
	s.mu.Unlock()

	profile, err := s.api.CurrentUser(ctx, accessToken)
	if err != nil {
		if errors.Is(err, authclient.ErrUnauthorized) {
			s.Expire(ctx, "current-user rejected the token")
			return err
		}
		return errors.Wrap(err, "[Store.FetchUser] CurrentUser")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		// The session was logged out or expired while the fetch was in
		// flight; the result is stale.
		return nil
	}
	s.profile = profile
	s.state = Authenticated
	return nil
}

// Refresh exchanges the refresh token for a new pair, keeping the profile.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	generation := s.generation
	s.mu.Unlock()

	if refreshToken == "" {
		return errors.New("[Store.Refresh] no refresh token held")
	}

	pair, err := s.api.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, authclient.ErrUnauthorized) {
			s.Expire(ctx, "refresh token rejected")
		}
		return errors.Wrap(err, "[Store.Refresh] Refresh")
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return nil
	}
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.mu.Unlock()

	refreshed := &tokenrecord.Record{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	// An active impersonation marker survives rotation; only Login and
	// StopImpersonation may discard it.
	if existing, err := s.record.Load(ctx); err == nil {
		refreshed.Impersonation = existing.Impersonation
	}
	if err := s.record.Save(ctx, refreshed); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist refreshed token record")
	}
	return nil
}

// Logout revokes the refresh token best-effort, clears all in-memory and
// persisted session fields, and navigates to the login route.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	if refreshToken != "" {
		if err := s.api.Logout(ctx, refreshToken); err != nil {
			// Local cleanup proceeds regardless.
			s.log.Warn().Err(err).Msg("server-side logout failed, continuing locally")
		}
	}

	s.mu.Lock()
	s.generation++
	s.clearLocked()
	s.state = Anonymous
	s.mu.Unlock()

	if err := s.record.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear token record")
	}

	s.navigateToLogin("")
}

// Expire tears the session down after the server rejected its token. It
// fires at most once per session: concurrent 401s from overlapping requests
// produce a single teardown and a single redirect to the central login,
// carrying the current URL as the redirect parameter. When no token is held
// in memory yet, the persisted record is checked too, so a rejection during
// the boot window before Restore still clears the stale record and
// redirects.
func (s *Store) Expire(ctx context.Context, reason string) {
	s.mu.Lock()
	if s.state == Expired {
		s.mu.Unlock()
		return
	}
	if s.accessToken == "" {
		s.mu.Unlock()
		s.expireFromRecord(ctx, reason)
		return
	}
	s.generation++
	s.clearLocked()
	s.state = Expired
	s.mu.Unlock()

	s.log.Info().Str("reason", reason).Msg("session expired")

	if err := s.record.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear token record")
	}

	s.navigateToLogin(s.navigator.CurrentURL().String())
}

// expireFromRecord handles a rejection that arrived before Restore loaded
// the persisted record into memory. A record holding a token is the same
// dead session; it is cleared and the user is sent to login exactly as if
// the token had been restored first.
func (s *Store) expireFromRecord(ctx context.Context, reason string) {
	record, err := s.record.Load(ctx)
	if err != nil || record.AccessToken == "" {
		return
	}

	s.mu.Lock()
	if s.state == Expired || s.accessToken != "" {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.state = Expired
	s.mu.Unlock()

	s.log.Info().Str("reason", reason).Msg("persisted session expired before restore")

	if err := s.record.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear token record")
	}

	s.navigateToLogin(s.navigator.CurrentURL().String())
}

// StartImpersonation swaps the session onto another user's access token,
// stashing the administrator's token in the persisted record.
func (s *Store) StartImpersonation(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("[Store.StartImpersonation] accessToken is required")
	}

	s.mu.Lock()
	originalToken := s.accessToken
	refreshToken := s.refreshToken
	s.generation++
	s.accessToken = accessToken
	s.profile = nil
	s.state = Authenticating
	s.mu.Unlock()

	if err := s.record.Save(ctx, &tokenrecord.Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Impersonation: &tokenrecord.Impersonation{
			OriginalToken: originalToken,
			Active:        true,
		},
	}); err != nil {
		return errors.Wrap(err, "[Store.StartImpersonation] record.Save")
	}

	if err := s.FetchUser(ctx); err != nil {
		return err
	}
	s.navigator.Push(s.config.LandingPath)
	return nil
}

// StopImpersonation restores the administrator's own token.
func (s *Store) StopImpersonation(ctx context.Context) error {
	record, err := s.record.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "[Store.StopImpersonation] record.Load")
	}
	if record.Impersonation == nil || !record.Impersonation.Active {
		return errors.New("[Store.StopImpersonation] no impersonation in progress")
	}
	originalToken := record.Impersonation.OriginalToken

	s.mu.Lock()
	refreshToken := s.refreshToken
	s.generation++
	s.accessToken = originalToken
	s.profile = nil
	s.state = Authenticating
	s.mu.Unlock()

	if err := s.record.Save(ctx, &tokenrecord.Record{
		AccessToken:  originalToken,
		RefreshToken: refreshToken,
	}); err != nil {
		return errors.Wrap(err, "[Store.StopImpersonation] record.Save")
	}

	if err := s.FetchUser(ctx); err != nil {
		return err
	}
	s.navigator.Push(s.config.LandingPath)
	return nil
}

func (s *Store) clearLocked() {
	s.accessToken = ""
	s.refreshToken = ""
	s.profile = nil
}

func (s *Store) resetToAnonymous(ctx context.Context, generation uint64) {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	s.clearLocked()
	s.state = Anonymous
	s.mu.Unlock()

	if err := s.record.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear token record")
	}
}

// redirectAfterLogin follows the redirect query parameter of the current URL
// literally when present, otherwise navigates to the default landing route.
func (s *Store) redirectAfterLogin() {
	if target := s.navigator.CurrentURL().Query().Get("redirect"); target != "" {
		s.navigator.Assign(target)
		return
	}
	s.navigator.Push(s.config.LandingPath)
}

// navigateToLogin goes to the login route: in-app when the configured login
// URL is a bare path, a full-page navigation when it is cross-origin. A
// non-empty returnTo is appended as the redirect parameter.
func (s *Store) navigateToLogin(returnTo string) {
	loginURL, err := url.Parse(s.config.LoginURL)
	if err != nil {
		s.navigator.Assign(s.config.LoginURL)
		return
	}

	if returnTo != "" {
		query := loginURL.Query()
		query.Set("redirect", returnTo)
		loginURL.RawQuery = query.Encode()
	}

	if loginURL.IsAbs() {
		s.navigator.Assign(loginURL.String())
		return
	}
	if returnTo != "" {
		s.navigator.Assign(loginURL.String())
		return
	}
	s.navigator.Push(loginURL.String())
}
