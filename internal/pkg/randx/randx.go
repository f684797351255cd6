/*
Package randx generates identifiers for persisted entities.
*/
package randx

import (
	"github.com/google/uuid"
)

// ID returns a new random UUID v4 string, used for conversation and message identifiers.
func ID() string {
	return uuid.NewString()
}

// IsValidID reports whether s is a canonical UUID string.
func IsValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
