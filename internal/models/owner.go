package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	OwnerUserPrefix    = "user:"
	OwnerSessionPrefix = "session:"
)

// Owner identifies whose cart a request operates on: a signed-in user or an
// anonymous browser session. Key is the value stored alongside cart entries.
type Owner struct {
	Key    string    `json:"-"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
}

func UserOwner(userID uuid.UUID, email string) Owner {
	return Owner{Key: OwnerUserPrefix + userID.String(), UserID: userID, Email: email}
}

func SessionOwner(sessionID uuid.UUID) Owner {
	return Owner{Key: OwnerSessionPrefix + sessionID.String()}
}

func (o Owner) Anonymous() bool {
	return strings.HasPrefix(o.Key, OwnerSessionPrefix)
}
