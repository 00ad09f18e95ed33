package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/notify/notifyfakes"
	"github.com/hubcentral/go-session-hub/session/tokenrecord"
	"github.com/hubcentral/go-session-hub/session/tokenrecord/repofakes"
	"github.com/hubcentral/go-session-hub/transport"
)

type staticTokenSource struct {
	lock  sync.Mutex
	token string
}

func (s *staticTokenSource) Token() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.token
}

type countingExpiryHandler struct {
	calls atomic.Int32
}

func (c *countingExpiryHandler) Expire(context.Context, string) {
	c.calls.Add(1)
}

func TestRoundTripInjectsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	tr := transport.New(&staticTokenSource{token: "tok-123"}, &countingExpiryHandler{})
	client := &http.Client{Transport: tr}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestRoundTripWithoutTokenLeavesHeaderUnset(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	tr := transport.New(&staticTokenSource{}, &countingExpiryHandler{})
	client := &http.Client{Transport: tr}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, gotAuth)
}

func TestRoundTripDoesNotMutateCallerRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	tr := transport.New(&staticTokenSource{token: "tok-123"}, &countingExpiryHandler{})

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Empty(t, req.Header.Get("Authorization"))
}

func TestRoundTripFallsBackToPersistedRecord(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	record := repofakes.NewFakeRecordRepo()
	record.Seed(&tokenrecord.Record{Version: tokenrecord.SchemaVersion, AccessToken: "persisted"})

	tr := transport.New(&staticTokenSource{}, &countingExpiryHandler{}, transport.WithRecordFallback(record))
	client := &http.Client{Transport: tr}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer persisted", gotAuth)
}

func TestUnauthorizedResponseTriggersExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	expiry := &countingExpiryHandler{}
	notifier := notifyfakes.NewFakeNotifier()
	tr := transport.New(&staticTokenSource{token: "tok"}, expiry, transport.WithNotifier(notifier))
	client := &http.Client{Transport: tr}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	// The response still reaches the caller.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), expiry.calls.Load())
	require.Empty(t, notifier.Negatives())
}

func TestForbiddenResponseNotifiesWithoutExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	expiry := &countingExpiryHandler{}
	notifier := notifyfakes.NewFakeNotifier()
	tr := transport.New(&staticTokenSource{token: "tok"}, expiry, transport.WithNotifier(notifier))
	client := &http.Client{Transport: tr}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, expiry.calls.Load())
	require.Len(t, notifier.Negatives(), 1)
}

func TestConcurrentUnauthorizedResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	expiry := &countingExpiryHandler{}
	tr := transport.New(&staticTokenSource{token: "tok"}, expiry)
	client := &http.Client{Transport: tr}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(server.URL)
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	// The transport reports every 401; collapsing them to a single
	// teardown is the expiry handler's contract.
	require.Equal(t, int32(8), expiry.calls.Load())
}
