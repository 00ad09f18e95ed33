// Package authclient is the typed consumer of the central auth API: the
// password-grant token exchange, the current-user resource, refresh and
// revocation, password recovery, MFA enrollment, and session management.
// It is the single place that turns HTTP statuses into error kinds.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	tokenPath           = "/api/v1/auth/token"
	refreshPath         = "/api/v1/auth/refresh"
	logoutPath          = "/api/v1/auth/logout"
	currentUserPath     = "/api/v1/users/me"
	passwordRecoverPath = "/api/v1/auth/password-recovery"
	passwordResetPath   = "/api/v1/auth/reset-password"
	mfaEnablePath       = "/api/v1/auth/mfa/enable"
	mfaConfirmPath      = "/api/v1/auth/mfa/confirm"
	mfaDisablePath      = "/api/v1/auth/mfa/disable"
	sessionsPath        = "/api/v1/auth/sessions"
	sessionsExceptPath  = "/api/v1/auth/sessions/all-except-current"
)

// Client talks to one central auth deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	oauth      *oauth2.Config
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to add a custom
// transport or tighter timeouts.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, options ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		opt(c)
	}
	c.oauth = &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  baseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c
}

// Login exchanges credentials for a token pair using the password grant.
// The email is sent as the `username` form field; that mapping is part of
// the wire contract. Returns ErrBadCredentials on rejection and
// ErrMFARequired when the account needs a one-time code (see LoginOTP).
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, translateTokenError(err)
	}
	return &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}, nil
}

// LoginOTP is the password grant with a one-time code attached, for accounts
// with MFA enabled. A valid recovery code is accepted in place of the OTP.
func (c *Client) LoginOTP(ctx context.Context, email, password, otpCode string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", email)
	form.Set("password", password)
	form.Set("otp_code", otpCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.LoginOTP] NewRequest")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var pair TokenPair
	if err := c.send(req, http.StatusOK, &pair); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	return &pair, nil
}

// CurrentUser fetches the authenticated principal's profile.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, currentUserPath, accessToken, nil, http.StatusOK, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial update to the current user and returns the
// refreshed profile.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodPut, currentUserPath, accessToken, update, http.StatusOK, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges a refresh token for a fresh pair. The old refresh token
// is invalid afterwards (rotation).
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, refreshPath, "", body, http.StatusOK, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout asks the server to revoke the refresh token. Revoking an unknown
// token is not an error on the server side; local cleanup never depends on
// this call succeeding.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.doJSON(ctx, http.MethodPost, logoutPath, "", body, http.StatusNoContent, nil)
}

// RecoverPassword starts the password-recovery flow. The server answers 202
// whether or not the address exists.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, passwordRecoverPath, "", body, http.StatusAccepted, nil)
}

// ResetPassword completes recovery with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.doJSON(ctx, http.MethodPost, passwordResetPath, "", body, http.StatusNoContent, nil)
}

// EnrollMFA starts TOTP enrollment for the current user.
func (c *Client) EnrollMFA(ctx context.Context, accessToken string) (*MFAEnrollment, error) {
	var enrollment MFAEnrollment
	if err := c.doJSON(ctx, http.MethodPost, mfaEnablePath, accessToken, nil, http.StatusOK, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ConfirmMFA completes enrollment with a code from the authenticator app and
// returns the recovery codes, which are shown exactly once.
func (c *Client) ConfirmMFA(ctx context.Context, accessToken, otpCode string) (*MFAConfirmation, error) {
	var confirmation MFAConfirmation
	body := map[string]string{"otp_code": otpCode}
	if err := c.doJSON(ctx, http.MethodPost, mfaConfirmPath, accessToken, body, http.StatusOK, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// DisableMFA turns TOTP off; requires a currently-valid code.
func (c *Client) DisableMFA(ctx context.Context, accessToken, otpCode string) error {
	body := map[string]string{"otp_code": otpCode}
	return c.doJSON(ctx, http.MethodPost, mfaDisablePath, accessToken, body, http.StatusNoContent, nil)
}

// Sessions lists the caller's active login sessions.
func (c *Client) Sessions(ctx context.Context, accessToken string) ([]SessionInfo, error) {
	var sessions []SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, sessionsPath, accessToken, nil, http.StatusOK, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RevokeSession terminates a single session by its ID.
func (c *Client) RevokeSession(ctx context.Context, accessToken, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, sessionsPath+"/"+url.PathEscape(sessionID), accessToken, nil, http.StatusNoContent, nil)
}

// RevokeOtherSessions terminates every session except the one holding the
// given refresh token.
func (c *Client) RevokeOtherSessions(ctx context.Context, accessToken, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.doJSON(ctx, http.MethodPost, sessionsExceptPath, accessToken, body, http.StatusNoContent, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Client.doJSON] Marshal %s", path)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "[Client.doJSON] NewRequest %s", path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.send(req, wantStatus, out)
}

func (c *Client) send(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[Client.send] %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[Client.send] Decode %s", req.URL.Path)
	}
	return nil
}

type apiError struct {
	Detail string `json:"detail"`
}

func statusError(resp *http.Response) error {
	var payload apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if payload.Detail == "MFA verification required" {
			return ErrMFARequired
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if payload.Detail != "" {
		return errors.Errorf("auth api: %s (status %d)", payload.Detail, resp.StatusCode)
	}
	return errors.Errorf("auth api: unexpected status %d", resp.StatusCode)
}

// translateTokenError maps x/oauth2 retrieval failures onto this package's
// error kinds.
func translateTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		var payload apiError
		_ = json.Unmarshal(retrieveErr.Body, &payload)
		if payload.Detail == "MFA verification required" {
			return ErrMFARequired
		}
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return ErrBadCredentials
		case http.StatusForbidden:
			return ErrForbidden
		}
		return fmt.Errorf("auth api: token endpoint status %d", retrieveErr.Response.StatusCode)
	}
	return errors.Wrap(err, "[Client.Login] token exchange")
}
