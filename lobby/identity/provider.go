package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrTokenExpired = errors.New("identity token expired")
	ErrMissingUID   = errors.New("identity token has no user id")
)

// User is the identity presented to a lobby
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Guest       bool   `json:"guest"`
}

// Provider reports the currently signed-in user, if any
type Provider interface {
	CurrentUser(ctx context.Context) (User, bool)
}

// tokenClaims are the identity-provider claims the client reads
type tokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenProvider signs users in from identity-provider ID tokens
type TokenProvider struct {
	mu   sync.RWMutex
	user *User
	now  func() time.Time
}

// NewTokenProvider creates a provider with nobody signed in
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{now: time.Now}
}

// SignIn decodes the token and makes its subject the current user
func (p *TokenProvider) SignIn(token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrInvalidToken
	}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(p.now()) {
		return User{}, ErrTokenExpired
	}

	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return User{}, ErrMissingUID
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	user := User{ID: uid, DisplayName: name}

	p.mu.Lock()
	p.user = &user
	p.mu.Unlock()
	return user, nil
}

// SignOut clears the current user
func (p *TokenProvider) SignOut() {
	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
}

// CurrentUser returns the signed-in user
func (p *TokenProvider) CurrentUser(ctx context.Context) (User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return User{}, false
	}
	return *p.user, true
}
