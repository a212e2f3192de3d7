package store

import (
	"errors"

	"github.com/google/uuid"
)

// SessionIDKey holds the identifier of this client install
const SessionIDKey = "sessionId"

// SessionID returns the stored session identifier, creating one on first use
func SessionID(s Store) (string, error) {
	id, err := GetString(s, SessionIDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	id = uuid.New().String()
	if err := SetString(s, SessionIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}
