package handshake

import (
	"context"

	"github.com/vitalvas/bunq/session"
)

// Installation is the result of the installation call.
type Installation struct {
	ID              int64
	Token           string
	ServerPublicKey string
}

// SessionGrant is the result of the session creation call.
type SessionGrant struct {
	ID      int64
	Token   string
	OwnerID int64
}

// Remote performs the network side of each handshake step. Implementations
// must not retain or modify sess.
type Remote interface {
	Install(ctx context.Context, clientPublicKeyPEM string) (Installation, error)
	RegisterDevice(ctx context.Context, sess session.Context, apiKey, description string) (deviceID string, err error)
	CreateSession(ctx context.Context, sess session.Context, apiKey string) (SessionGrant, error)
}
