package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vitalvas/bunq/handshake"
	"github.com/vitalvas/bunq/transport"
)

// User is the owner of the session.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`

	// Type is the response item type, for example UserPerson.
	Type string `json:"-"`
}

// User fetches the session owner.
func (c *Client) User(ctx context.Context) (User, error) {
	res, err := Send[transport.Items](ctx, c, transport.Request{Method: http.MethodGet, Path: "user"})
	if err != nil {
		return User{}, err
	}

	if !res.IsSuccess() {
		return User{}, res.Error
	}

	var user User

	key, err := res.Value.FindFirst(&user, handshake.OwnerKeys...)
	if err != nil {
		return User{}, err
	}

	if key == "" {
		return User{}, fmt.Errorf("%w: no user item", transport.ErrUnexpectedResponse)
	}

	user.Type = key

	return user, nil
}

// CheckSession asks the remote whether the current session is still
// accepted. A rejected session is reported as a *transport.ErrorEnvelope.
func (c *Client) CheckSession(ctx context.Context) error {
	_, err := c.User(ctx)
	return err
}

// EnsureSession replaces the session when the remote no longer accepts it.
// Integrity and network failures are returned as they are; only an
// application error from the remote triggers a new session.
func (c *Client) EnsureSession(ctx context.Context) error {
	err := c.CheckSession(ctx)
	if err == nil {
		return nil
	}

	if !handshake.IsRemoteError(err) {
		return err
	}

	c.logger.Info("session rejected, creating a new one", slog.Any("reason", err))

	if _, err := c.owner.Refresh(ctx, c.apiKey); err != nil {
		return err
	}

	return nil
}
