package identity

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/halfway/lobby/store"
	"github.com/wricardo/halfway/logging"
)

const (
	// UserIDKey is the store key holding the presented user id
	UserIDKey = "userId"

	// GuestPrefix marks generated guest ids
	GuestPrefix = "g_"

	chatNameLength = 6
	guestRandLen   = 13
)

// Resolver picks the authenticated uid or a stable guest id
type Resolver struct {
	provider Provider
	store    store.Store
	now      func() time.Time
}

// NewResolver creates a resolver; provider may be nil for guest-only use
func NewResolver(provider Provider, s store.Store) *Resolver {
	return &Resolver{provider: provider, store: s, now: time.Now}
}

// Resolve returns the user id to present and records it in the store
func (r *Resolver) Resolve(ctx context.Context) (User, error) {
	if r.provider != nil {
		if user, ok := r.provider.CurrentUser(ctx); ok {
			if err := store.SetString(r.store, UserIDKey, user.ID); err != nil {
				return User{}, fmt.Errorf("failed to store user id: %w", err)
			}
			return user, nil
		}
	}

	stored, err := store.GetString(r.store, UserIDKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	if IsGuestID(stored) {
		return User{ID: stored, DisplayName: ChatName(stored), Guest: true}, nil
	}

	id, err := NewGuestID(r.now())
	if err != nil {
		return User{}, err
	}
	if err := store.SetString(r.store, UserIDKey, id); err != nil {
		return User{}, fmt.Errorf("failed to store guest id: %w", err)
	}
	logging.Debug().Str("user_id", id).Msg("generated guest id")

	return User{ID: id, DisplayName: ChatName(id), Guest: true}, nil
}

// NewGuestID builds g_<unix millis><base36 random>
func NewGuestID(now time.Time) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate guest id: %w", err)
	}
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(suffix) > guestRandLen {
		suffix = suffix[:guestRandLen]
	}
	return GuestPrefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix, nil
}

// IsGuestID reports whether id was generated for a guest
func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestPrefix)
}

// ChatName shortens a user id to the name shown in chat
func ChatName(userID string) string {
	runes := []rune(userID)
	if len(runes) <= chatNameLength {
		return userID
	}
	return string(runes[:chatNameLength])
}
