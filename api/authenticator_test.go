package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/notify"
	"github.com/davemarchant/tienda-go/session"
	"github.com/davemarchant/tienda-go/store"
	"github.com/davemarchant/tienda-go/users"
)

const (
	staleToken = "stale-token"
	freshToken = "fresh-token"
)

// countingRefresher stands in for the auth service's refresh call. The delay
// keeps the refresh in flight long enough for every concurrently failing
// request to queue up behind it.
type countingRefresher struct {
	calls   atomic.Int32
	delay   time.Duration
	fail    bool
	session *session.Session
}

func (r *countingRefresher) Refresh(context.Context) (string, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	if r.fail {
		return "", &api.APIError{Status: http.StatusUnauthorized, Message: api.MsgSessionExpired}
	}
	r.session.SetToken(freshToken)
	return freshToken, nil
}

type navRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (n *navRecorder) navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *navRecorder) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func authedSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	sess.Establish(users.User{ID: 1, Email: "ana@example.com"}, staleToken)
	return sess
}

// newProtectedServer serves a /protected resource that 401s anything but the
// fresh token. Stale-token requests are held at a barrier until `parallel`
// of them have arrived, then all are released at once, so every client holds
// a 401 before the shared refresh can possibly resolve.
func newProtectedServer(t *testing.T, parallel int, unauthorized *atomic.Int32) *httptest.Server {
	t.Helper()

	var arrived sync.WaitGroup
	arrived.Add(parallel)
	barrier := make(chan struct{})
	go func() {
		arrived.Wait()
		close(barrier)
	}()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			arrived.Done()
			<-barrier
			unauthorized.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": "ok", "message": "ok"}) //nolint:errcheck
	}))
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const parallel = 5

	var unauthorized atomic.Int32
	server := newProtectedServer(t, parallel, &unauthorized)
	defer server.Close()

	sess := authedSession(t)
	refresher := &countingRefresher{delay: 200 * time.Millisecond, session: sess}
	recorder := notify.NewRecorder()

	authn := api.NewAuthenticator(sess, recorder)
	authn.SetRefresher(refresher)
	client := api.NewClient(server.URL,
		api.WithHTTPClient(&http.Client{Transport: authn}),
		api.WithNotifier(recorder),
	)

	var wg sync.WaitGroup
	errs := make([]error, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var resp api.Response[string]
			errs[i] = client.Get(context.Background(), "/protected", &resp)
			if errs[i] == nil && resp.Data != "ok" {
				errs[i] = &api.APIError{Message: "unexpected body"}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	require.Equal(t, int32(1), refresher.calls.Load(), "exactly one refresh call")
	require.Equal(t, int32(parallel), unauthorized.Load(), "each request 401s exactly once")
	require.Empty(t, recorder.Errors())
	require.Equal(t, freshToken, sess.Token())
}

func TestRefreshFailureTerminatesSessionOnce(t *testing.T) {
	const parallel = 5

	var unauthorized atomic.Int32
	server := newProtectedServer(t, parallel, &unauthorized)
	defer server.Close()

	sess := authedSession(t)
	refresher := &countingRefresher{delay: 200 * time.Millisecond, fail: true, session: sess}
	recorder := notify.NewRecorder()
	nav := &navRecorder{}

	authn := api.NewAuthenticator(sess, recorder, api.WithNavigator(nav.navigate))
	authn.SetRefresher(refresher)
	client := api.NewClient(server.URL,
		api.WithHTTPClient(&http.Client{Transport: authn}),
		api.WithNotifier(recorder),
	)

	var wg sync.WaitGroup
	errs := make([]error, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/protected", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "request %d", i)
		var expired *api.SessionExpiredError
		require.ErrorAs(t, err, &expired, "request %d fails with the refresh error", i)
	}
	require.Equal(t, int32(1), refresher.calls.Load())
	require.False(t, sess.Authenticated(), "session cleared")
	require.Equal(t, []string{api.MsgSessionExpired}, recorder.Errors(), "exactly one notification")
	require.Equal(t, []string{"/"}, nav.recorded(), "redirected home once")
}

func TestBearerAttachedOnlyWhenAuthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"data": "ok"}) //nolint:errcheck
	}))
	defer server.Close()

	t.Run("authenticated", func(t *testing.T) {
		sess := authedSession(t)
		authn := api.NewAuthenticator(sess, nil)
		client := api.NewClient(server.URL, api.WithHTTPClient(&http.Client{Transport: authn}))

		require.NoError(t, client.Get(context.Background(), "/", nil))
		require.Equal(t, "Bearer "+staleToken, gotAuth)
	})

	t.Run("anonymous", func(t *testing.T) {
		sess := session.New(store.NewMemoryStore(), zerolog.Nop())
		authn := api.NewAuthenticator(sess, nil)
		client := api.NewClient(server.URL, api.WithHTTPClient(&http.Client{Transport: authn}))

		require.NoError(t, client.Get(context.Background(), "/", nil))
		require.Empty(t, gotAuth)
	})
}

func TestAnonymous401DoesNotRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sess := session.New(store.NewMemoryStore(), zerolog.Nop())
	refresher := &countingRefresher{session: sess}
	recorder := notify.NewRecorder()

	authn := api.NewAuthenticator(sess, recorder)
	authn.SetRefresher(refresher)
	client := api.NewClient(server.URL,
		api.WithHTTPClient(&http.Client{Transport: authn}),
		api.WithNotifier(recorder),
	)

	err := client.Get(context.Background(), "/protected", nil)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, api.MsgSessionExpired, apiErr.Message)
	require.Zero(t, refresher.calls.Load(), "no refresh without an authenticated session")
	require.Len(t, recorder.Errors(), 1)
}

func TestRetriedRequestReplaysBody(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf) //nolint:errcheck
		mu.Lock()
		bodies = append(bodies, string(buf))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": "ok"}) //nolint:errcheck
	}))
	defer server.Close()

	sess := authedSession(t)
	refresher := &countingRefresher{session: sess}
	authn := api.NewAuthenticator(sess, nil)
	authn.SetRefresher(refresher)
	client := api.NewClient(server.URL, api.WithHTTPClient(&http.Client{Transport: authn}))

	err := client.Post(context.Background(), "/protected", map[string]string{"hello": "mundo"}, nil)

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	require.JSONEq(t, `{"hello":"mundo"}`, bodies[0])
	require.JSONEq(t, `{"hello":"mundo"}`, bodies[1], "retry carries the same body")
}
