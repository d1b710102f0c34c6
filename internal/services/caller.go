package services

import (
	"github.com/google/uuid"
)

// Caller is the canonical capability value both transport bindings map
// their authentication into. The session binding may carry a share code
// alongside (or instead of) an authenticated user; the API-key binding
// only ever sets UserID, so share-code read grants cannot apply there.
type Caller struct {
	UserID    uuid.UUID
	ShareCode string
}

// Authenticated reports whether the caller resolved to a user
func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil
}
