// Package auth resolves a caller identity to an Atlassian access token.
//
// Token storage itself is outside this module's concern: providers either
// hold tokens handed to them at startup or refresh them through the OAuth
// 2.0 (3LO) token endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/danielolaszy/atlas/internal/logging"
)

var (
	// ErrUnknownIdentity is returned when a provider holds nothing for an identity.
	ErrUnknownIdentity = errors.New("no access token registered for identity")
	// ErrNoToken is returned when a provider yields an empty token.
	ErrNoToken = errors.New("access token is empty")
)

// Provider returns the access token bound to an identity. Implementations
// must be safe for concurrent use.
type Provider interface {
	Token(ctx context.Context, identity string) (string, error)
}

type tokenKey struct{}

// WithToken returns a context carrying the caller's own access token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the access token stored in ctx, or "".
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// RequestToken serves the token the caller presented with the request
// itself. The identity only labels the call.
type RequestToken struct{}

// Token implements Provider.
func (RequestToken) Token(ctx context.Context, identity string) (string, error) {
	token := TokenFrom(ctx)
	if token == "" {
		return "", fmt.Errorf("%w: %q presented no token", ErrUnknownIdentity, identity)
	}
	return token, nil
}

// Static serves fixed tokens keyed by identity.
type Static map[string]string

// Token implements Provider.
func (s Static) Token(_ context.Context, identity string) (string, error) {
	token, ok := s[identity]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
	}
	if token == "" {
		return "", fmt.Errorf("%w for identity %q", ErrNoToken, identity)
	}
	return token, nil
}

// Store keeps one OAuth token per identity and refreshes expired tokens
// through the configured OAuth client.
type Store struct {
	config *oauth2.Config

	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

// NewStore creates a token store. A nil config disables refreshing; expired
// tokens are then returned as errors.
func NewStore(config *oauth2.Config) *Store {
	return &Store{
		config: config,
		tokens: make(map[string]*oauth2.Token),
	}
}

// Put registers or replaces the token for an identity.
func (s *Store) Put(identity string, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[identity] = token
}

// Token implements Provider.
func (s *Store) Token(ctx context.Context, identity string) (string, error) {
	s.mu.Lock()
	current, ok := s.tokens[identity]
	s.mu.Unlock()
	if !ok || current == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
	}

	if current.Valid() {
		return current.AccessToken, nil
	}

	if s.config == nil || current.RefreshToken == "" {
		return "", fmt.Errorf("%w for identity %q: token expired and cannot be refreshed", ErrNoToken, identity)
	}

	logging.Debug("refreshing access token", "identity", logging.MaskSensitive(identity))

	refreshed, err := s.config.TokenSource(ctx, current).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token for identity %q: %w", identity, err)
	}
	if refreshed.AccessToken == "" {
		return "", fmt.Errorf("%w for identity %q after refresh", ErrNoToken, identity)
	}

	s.Put(identity, refreshed)
	logging.Info("access token refreshed",
		"identity", logging.MaskSensitive(identity),
		"expiry", refreshed.Expiry)

	return refreshed.AccessToken, nil
}

// Chain asks each provider in order and returns the first token found.
// Errors other than ErrUnknownIdentity stop the chain.
type Chain []Provider

// Token implements Provider.
func (c Chain) Token(ctx context.Context, identity string) (string, error) {
	for _, p := range c {
		token, err := p.Token(ctx, identity)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrUnknownIdentity) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
}

// NewOAuthConfig builds the OAuth client used to refresh Atlassian tokens.
func NewOAuthConfig(clientID, clientSecret, authURL, tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
