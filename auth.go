package kurir

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const headerAuthorization = "Authorization"

// TokenStore supplies and refreshes the bearer credential the auth
// interceptor attaches to outgoing requests.
type TokenStore interface {
	// Token returns the current credential, or false when none is available.
	Token(ctx context.Context) (string, bool)
	// Refresh obtains a new credential. A failure is terminal for the
	// request that triggered it.
	Refresh(ctx context.Context) error
}

// AuthInterceptor injects a bearer credential into outgoing requests and, on
// a 401 response, refreshes the credential and asks the engine to re-run the
// pipeline. Requests without an available token pass through unmodified.
type AuthInterceptor struct {
	store TokenStore

	// OnRefresh, when set, observes every refresh outcome.
	OnRefresh func(err error)
}

// NewAuthInterceptor builds an auth interceptor over the given store.
func NewAuthInterceptor(store TokenStore) *AuthInterceptor {
	return &AuthInterceptor{store: store}
}

// InterceptRequest attaches the bearer credential when the store has one.
func (a *AuthInterceptor) InterceptRequest(ctx context.Context, req *Request) (RequestDecision, error) {
	if token, ok := a.store.Token(ctx); ok {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}
		req.Headers[headerAuthorization] = "Bearer " + token
	}
	return RequestDecision{Decision: Proceed, Request: req}, nil
}

// InterceptResponse triggers a refresh on 401 and signals RetryRequest so the
// engine re-attempts the pipeline with the (possibly) refreshed token. A
// refresh failure propagates as a terminal authentication error.
func (a *AuthInterceptor) InterceptResponse(ctx context.Context, req *Request, status int, body []byte) (ResponseDecision, error) {
	if status != 401 {
		return ResponseDecision{Decision: Proceed}, nil
	}

	err := a.store.Refresh(ctx)
	if a.OnRefresh != nil {
		a.OnRefresh(err)
	}
	if err != nil {
		return ResponseDecision{}, &RequestError{
			Kind:       KindUnauthorized,
			StatusCode: status,
			Message:    "token refresh failed",
			Cause:      err,
		}
	}
	return ResponseDecision{Decision: RetryRequest}, nil
}

// StaticTokenStore holds a fixed credential with no refresh path. A 401 on a
// static token is therefore terminal.
type StaticTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenStore builds a store around a fixed token. An empty token
// reports as absent.
func NewStaticTokenStore(token string) *StaticTokenStore {
	return &StaticTokenStore{token: token}
}

func (s *StaticTokenStore) Token(ctx context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *StaticTokenStore) Refresh(ctx context.Context) error {
	return &RequestError{Kind: KindUnauthorized, Message: "static token cannot be refreshed"}
}

// SetToken replaces the stored token, e.g. after an out-of-band rotation.
func (s *StaticTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// JWTTokenStore holds a JWT and refreshes it through a caller-supplied
// function. A token whose exp claim has passed is reported as absent, so the
// request goes out bare and the resulting 401 drives a refresh.
type JWTTokenStore struct {
	mu      sync.Mutex
	token   string
	refresh func(ctx context.Context) (string, error)
	now     func() time.Time
}

// NewJWTTokenStore builds a store with an initial token (may be empty) and a
// refresh function that returns a replacement token.
func NewJWTTokenStore(initial string, refresh func(ctx context.Context) (string, error)) *JWTTokenStore {
	return &JWTTokenStore{token: initial, refresh: refresh, now: time.Now}
}

func (s *JWTTokenStore) Token(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", false
	}
	if exp := jwtExpiry(s.token); exp != nil && s.now().After(*exp) {
		return "", false
	}
	return s.token, true
}

func (s *JWTTokenStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.refresh(ctx)
	if err != nil {
		return err
	}
	s.token = token
	return nil
}

// jwtExpiry extracts the exp claim without verifying the signature; the
// store only needs the timestamp, verification is the server's job.
func jwtExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return &exp.Time
}

// OAuth2TokenStore adapts an oauth2.TokenSource to the TokenStore capability.
// Token reports the cached token while it is valid; Refresh pulls a new one
// from the source.
type OAuth2TokenStore struct {
	mu      sync.Mutex
	source  oauth2.TokenSource
	current *oauth2.Token
}

// NewOAuth2TokenStore builds a store over the given token source.
func NewOAuth2TokenStore(source oauth2.TokenSource) *OAuth2TokenStore {
	return &OAuth2TokenStore{source: source}
}

func (s *OAuth2TokenStore) Token(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Valid() {
		return s.current.AccessToken, true
	}
	return "", false
}

func (s *OAuth2TokenStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.source.Token()
	if err != nil {
		return err
	}
	s.current = token
	return nil
}
