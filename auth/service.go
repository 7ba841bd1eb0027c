// Package auth drives the authentication flows: sign-in/out, registration,
// password recovery and the token refresh used by the request authenticator.
package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/cart"
	"github.com/davemarchant/tienda-go/session"
	"github.com/davemarchant/tienda-go/users"
)

// Payload is the body of a successful sign-in or refresh:
// {"data":{"accessToken":...,"user":...,"shoppingCart":[...]}}.
type Payload struct {
	AccessToken  string      `json:"accessToken"`
	User         *users.User `json:"user"`
	ShoppingCart []cart.Line `json:"shoppingCart"`
}

// SignUpRequest is the registration payload.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ResetPasswordRequest carries the new credentials for a password reset.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Mirror is per-user local state beyond the session and cart that must be
// dropped on sign-out, such as the wishlist's persisted membership mirror.
type Mirror interface {
	Clear()
}

// Service wires the auth endpoints to the session and cart state.
//
// Two clients are used: the main one (whose transport is the authenticator)
// for regular calls, and a bare one for the refresh itself. The refresh
// credential travels in a session cookie shared through the cookie jar, and
// routing it around the authenticator keeps a failing refresh from trying to
// refresh itself.
type Service struct {
	client   *api.Client
	bare     *api.Client
	session  *session.Session
	cart     *cart.Engine
	logger   zerolog.Logger
	mirrors  []Mirror
	navigate api.Navigator
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMirror registers local state cleared on sign-out.
func WithMirror(m Mirror) ServiceOption {
	return func(s *Service) { s.mirrors = append(s.mirrors, m) }
}

// WithNavigator sets the route callback invoked after sign-out.
func WithNavigator(nav api.Navigator) ServiceOption {
	return func(s *Service) { s.navigate = nav }
}

// NewService creates the auth service.
func NewService(client, bare *api.Client, sess *session.Session, engine *cart.Engine, logger zerolog.Logger, options ...ServiceOption) *Service {
	s := &Service{
		client:  client,
		bare:    bare,
		session: sess,
		cart:    engine,
		logger:  logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SignIn authenticates the user, establishes the session and seeds the local
// cart from the server-side one when no local cart exists (an existing local
// cart wins and is left untouched).
func (s *Service) SignIn(ctx context.Context, email, password string) (*users.User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp api.Response[Payload]
	if err := s.client.Post(ctx, "/auth/sign-in", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.User == nil || resp.Data.AccessToken == "" {
		return nil, errors.New("[auth.SignIn] response missing user or token")
	}

	s.session.Establish(*resp.Data.User, resp.Data.AccessToken)
	s.cart.Seed(resp.Data.ShoppingCart)
	s.logger.Info().Str("email", email).Msg("signed in")
	return resp.Data.User, nil
}

// SignUp registers a new account and returns the server's message.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	var resp api.Response[string]
	if err := s.client.Post(ctx, "/auth/sign-up", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SignOut ends the server session, then clears the local session, cart and
// every registered mirror, and sends the user home. The local teardown
// happens even when the server call fails.
func (s *Service) SignOut(ctx context.Context) error {
	var resp api.Response[string]
	err := s.client.Post(ctx, "/auth/sign-out", map[string]string{}, &resp)

	s.session.Clear()
	s.cart.Forget()
	for _, m := range s.mirrors {
		m.Clear()
	}
	if s.navigate != nil {
		s.navigate("/")
	}
	s.logger.Info().Msg("signed out")
	return err
}

// ForgotPassword asks the server to send a reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp api.Response[string]
	if err := s.client.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword completes a password reset using the token the user received
// by email (not the session token).
func (s *Service) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (string, error) {
	var resp api.Response[string]
	if err := s.client.DoWithToken(ctx, http.MethodPost, "/auth/reset-password", token, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Refresh implements api.Refresher. It exchanges the refresh cookie for a
// new access token, stores it, and applies any user or cart data the
// response carries (the cart follows the same first-write-wins seeding rule
// as sign-in).
func (s *Service) Refresh(ctx context.Context) (string, error) {
	var resp api.Response[Payload]
	if err := s.bare.Post(ctx, "/auth/refresh-token", map[string]string{}, &resp); err != nil {
		return "", errors.Wrap(err, "[auth.Refresh] refresh-token request")
	}
	if resp.Data.AccessToken == "" {
		return "", errors.New("[auth.Refresh] response missing access token")
	}

	s.session.SetToken(resp.Data.AccessToken)
	if resp.Data.User != nil {
		s.session.UpdateUser(*resp.Data.User)
	}
	if len(resp.Data.ShoppingCart) > 0 {
		s.cart.Seed(resp.Data.ShoppingCart)
	}
	return resp.Data.AccessToken, nil
}
