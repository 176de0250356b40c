package transport

import (
	"context"

	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/session"
)

// Send performs an authenticated call with a live session: the body is
// signed, the session token is attached and the response must carry a
// valid server signature. sess is only read.
func Send[T any](ctx context.Context, c *Client, req Request, sess session.Context) (Result[T], error) {
	if !sess.IsLive() {
		return Result[T]{}, ErrNotLive
	}

	return SendWithToken[T](ctx, c, req, sess.SessionToken, sess.ServerPublicKey)
}

// SendWithToken is Send with an explicit authentication token, as used by
// device registration and session creation with the installation token.
func SendWithToken[T any](ctx context.Context, c *Client, req Request, token, serverPublicKeyPEM string) (Result[T], error) {
	verifier, err := httpsig.NewVerifierFromPEM(serverPublicKeyPEM)
	if err != nil {
		return Result[T]{}, err
	}

	resp, err := c.Do(ctx, req, Call{Sign: true, Token: token, Verifier: verifier})
	if err != nil {
		return Result[T]{}, err
	}

	return Decode[T](resp)
}

// SendUnverified sends an unsigned request without authentication and
// decodes the response without checking its signature. It exists only for
// the installation call, before any server key is known.
func SendUnverified[T any](ctx context.Context, c *Client, req Request) (Result[T], *Response, error) {
	resp, err := c.Do(ctx, req, Call{})
	if err != nil {
		return Result[T]{}, nil, err
	}

	res, err := Decode[T](resp)

	return res, resp, err
}
