package api

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/davemarchant/tienda-go/notify"
)

// Credentials is the authenticator's view of the session.
type Credentials interface {
	Token() string
	Authenticated() bool
	Clear()
}

// Refresher exchanges the refresh credential (a session cookie) for a new
// access token. Implementations are responsible for storing the refreshed
// token and any user/cart data carried by the response.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Navigator moves the UI to a route, used to send the user home when the
// session dies.
type Navigator func(path string)

// Authenticator is an http.RoundTripper that attaches the bearer token to
// outgoing requests and recovers from access-token expiry: the first request
// to fail with 401 triggers exactly one refresh call, concurrent 401s wait
// for that same refresh, and every waiter retries with the new token.
type Authenticator struct {
	base      http.RoundTripper
	session   Credentials
	notifier  notify.Notifier
	navigate  Navigator
	logger    zerolog.Logger
	refresher Refresher

	group singleflight.Group
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithBaseTransport sets the wrapped RoundTripper (default
// http.DefaultTransport).
func WithBaseTransport(rt http.RoundTripper) AuthenticatorOption {
	return func(a *Authenticator) { a.base = rt }
}

// WithNavigator sets the route callback invoked on session expiry.
func WithNavigator(nav Navigator) AuthenticatorOption {
	return func(a *Authenticator) { a.navigate = nav }
}

// WithAuthenticatorLogger sets the structured logger.
func WithAuthenticatorLogger(logger zerolog.Logger) AuthenticatorOption {
	return func(a *Authenticator) { a.logger = logger }
}

// NewAuthenticator creates an authenticator for the given session. The
// refresher is attached afterwards via SetRefresher because it typically
// needs an API client of its own.
func NewAuthenticator(session Credentials, notifier notify.Notifier, options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		base:     http.DefaultTransport,
		session:  session,
		notifier: notifier,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// SetRefresher wires the refresh call. Must be done before the first request
// that can hit a 401.
func (a *Authenticator) SetRefresher(r Refresher) {
	a.refresher = r
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	authed := a.session.Authenticated()
	token := a.session.Token()

	outReq := req
	if token != "" && authed && req.Header.Get("Authorization") == "" {
		outReq = withBearer(req, token)
	}

	resp, err := a.base.RoundTrip(outReq)
	if err != nil {
		return nil, err
	}

	// Only sessions that were authenticated at request time enter the
	// refresh protocol; anonymous 401s surface unchanged.
	if resp.StatusCode != http.StatusUnauthorized || !authed || a.refresher == nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()

	newToken, err := a.refresh()
	if err != nil {
		return nil, err
	}

	retry, err := rewindRequest(req)
	if err != nil {
		return nil, err
	}
	return a.base.RoundTrip(withBearer(retry, newToken))
}

// refresh runs the single-flight refresh protocol. All concurrent callers
// share one refresh HTTP call and one outcome; the side effects of a failed
// refresh (session teardown, notification, redirect) happen exactly once.
func (a *Authenticator) refresh() (string, error) {
	v, err, _ := a.group.Do("refresh-token", func() (any, error) {
		// The refresh is deliberately detached from any single request's
		// context: its outcome is shared by every queued request.
		token, err := a.refresher.Refresh(context.Background())
		if err != nil {
			a.logger.Warn().Err(err).Msg("token refresh failed, terminating session")
			a.session.Clear()
			if a.notifier != nil {
				a.notifier.Error(MsgSessionExpired)
			}
			if a.navigate != nil {
				a.navigate("/")
			}
			return nil, &SessionExpiredError{Cause: err}
		}
		a.logger.Debug().Msg("access token refreshed")
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// withBearer clones the request with the Authorization header set.
func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

// rewindRequest clones a request for retry, re-creating its body. Requests
// built by the client use bytes readers, so GetBody is always available when
// a body exists.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
