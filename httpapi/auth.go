package httpapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// HeaderAuthorization is the default credential header
	HeaderAuthorization = "Authorization"
	// SchemeBearer is the default token prefix
	SchemeBearer = "Bearer "
)

// Authorizer contributes credential headers. Implementations return a new
// header set containing h plus their own entries and must not modify h.
type Authorizer interface {
	Headers(ctx context.Context, s *Session, h http.Header) (http.Header, error)
}

// NoAuth adds nothing.
type NoAuth struct{}

func (NoAuth) Headers(_ context.Context, _ *Session, h http.Header) (http.Header, error) {
	return cloneHeader(h), nil
}

// TokenAuth sends a static token as "<Header>: <Scheme><token>".
type TokenAuth struct {
	token  Secret
	scheme string
	header string
}

// TokenOption customizes a TokenAuth.
type TokenOption func(*TokenAuth)

// WithScheme replaces the "Bearer " prefix. The prefix is used verbatim,
// trailing space included.
func WithScheme(scheme string) TokenOption {
	return func(a *TokenAuth) { a.scheme = scheme }
}

// WithHeaderName sends the token in a header other than Authorization.
func WithHeaderName(name string) TokenOption {
	return func(a *TokenAuth) { a.header = name }
}

func NewTokenAuth(token Secret, opts ...TokenOption) *TokenAuth {
	a := &TokenAuth{token: token, scheme: SchemeBearer, header: HeaderAuthorization}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *TokenAuth) Headers(_ context.Context, _ *Session, h http.Header) (http.Header, error) {
	out := cloneHeader(h)
	out.Set(a.header, a.scheme+a.token.Reveal())
	return out, nil
}

// BasicAuth sends RFC 7617 credentials.
type BasicAuth struct {
	Username string
	Password Secret
}

func (a BasicAuth) Headers(_ context.Context, _ *Session, h http.Header) (http.Header, error) {
	out := cloneHeader(h)
	cred := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password.Reveal()))
	out.Set(HeaderAuthorization, "Basic "+cred)
	return out, nil
}

// OAuth2Auth obtains bearer tokens with the client credentials flow and
// reuses them until shortly before expiry.
type OAuth2Auth struct {
	config *clientcredentials.Config
	leeway time.Duration

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewOAuth2Auth builds a client credentials authorizer. scopes is a
// space separated list.
func NewOAuth2Auth(tokenURL, clientID string, clientSecret Secret, scopes string) *OAuth2Auth {
	return &OAuth2Auth{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret.Reveal(),
			TokenURL:     tokenURL,
			Scopes:       strings.Fields(scopes),
		},
		leeway: time.Minute,
	}
}

func (a *OAuth2Auth) Headers(ctx context.Context, _ *Session, h http.Header) (http.Header, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	out := cloneHeader(h)
	out.Set(HeaderAuthorization, SchemeBearer+token)
	return out, nil
}

func (a *OAuth2Auth) accessToken(ctx context.Context) (string, error) {
	a.mu.RLock()
	if a.valid() {
		token := a.token.AccessToken
		a.mu.RUnlock()
		return token, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.valid() {
		return a.token.AccessToken, nil
	}

	token, err := a.config.Token(ctx)
	if err != nil {
		return "", newError(http.StatusUnauthorized, fmt.Sprintf("oauth2 token request failed: %v", err), err)
	}
	a.token = token
	return token.AccessToken, nil
}

func (a *OAuth2Auth) valid() bool {
	if a.token == nil {
		return false
	}
	if !a.token.Expiry.IsZero() && time.Until(a.token.Expiry) <= a.leeway {
		return false
	}
	return a.token.Valid()
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return make(http.Header)
	}
	return h.Clone()
}
