package repository

import (
	"github.com/rs/xid"

	"github.com/sakif/session-auth/internal/apperror"
)

// NewID returns a fresh store identifier: a 20 character xid string
// (12 bytes: timestamp, machine, pid, counter).
func NewID() string {
	return xid.New().String()
}

// ParseID checks that id is a well-formed store identifier and returns it in
// canonical form. It fails with apperror.ErrInvalidID otherwise.
func ParseID(id string) (string, error) {
	parsed, err := xid.FromString(id)
	if err != nil {
		return "", apperror.InvalidID(id)
	}
	return parsed.String(), nil
}
