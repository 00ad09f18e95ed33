// Package sessionfakes provides a scriptable AuthAPI for store tests.
package sessionfakes

import (
	"context"
	"sync"

	"github.com/hubcentral/go-session-hub/authclient"
)

// FakeAuthAPI implements session.AuthAPI with per-call function hooks and
// call counters.
type FakeAuthAPI struct {
	mu sync.Mutex

	LoginFn       func(email, password string) (*authclient.TokenPair, error)
	LoginOTPFn    func(email, password, otpCode string) (*authclient.TokenPair, error)
	CurrentUserFn func(accessToken string) (*authclient.Profile, error)
	RefreshFn     func(refreshToken string) (*authclient.TokenPair, error)
	LogoutFn      func(refreshToken string) error

	LoginCalls       int
	CurrentUserCalls int
	RefreshCalls     int
	LogoutCalls      int
	LoggedOutTokens  []string
}

func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{}
}

func (f *FakeAuthAPI) Login(_ context.Context, email, password string) (*authclient.TokenPair, error) {
	f.mu.Lock()
	f.LoginCalls++
	fn := f.LoginFn
	f.mu.Unlock()
	if fn == nil {
		return nil, authclient.ErrBadCredentials
	}
	return fn(email, password)
}

func (f *FakeAuthAPI) LoginOTP(_ context.Context, email, password, otpCode string) (*authclient.TokenPair, error) {
	f.mu.Lock()
	f.LoginCalls++
	fn := f.LoginOTPFn
	f.mu.Unlock()
	if fn == nil {
		return nil, authclient.ErrBadCredentials
	}
	return fn(email, password, otpCode)
}

func (f *FakeAuthAPI) CurrentUser(_ context.Context, accessToken string) (*authclient.Profile, error) {
	f.mu.Lock()
	f.CurrentUserCalls++
	fn := f.CurrentUserFn
	f.mu.Unlock()
	if fn == nil {
		return nil, authclient.ErrUnauthorized
	}
	return fn(accessToken)
}

func (f *FakeAuthAPI) Refresh(_ context.Context, refreshToken string) (*authclient.TokenPair, error) {
	f.mu.Lock()
	f.RefreshCalls++
	fn := f.RefreshFn
	f.mu.Unlock()
	if fn == nil {
		return nil, authclient.ErrUnauthorized
	}
	return fn(refreshToken)
}

func (f *FakeAuthAPI) Logout(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	f.LogoutCalls++
	f.LoggedOutTokens = append(f.LoggedOutTokens, refreshToken)
	fn := f.LogoutFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(refreshToken)
}
