package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/logger"
	"github.com/vitalvas/bunq/session"
	"github.com/vitalvas/bunq/transport"
)

// Endpoint paths relative to the API root.
const (
	PathInstallation  = "installation"
	PathDeviceServer  = "device-server"
	PathSessionServer = "session-server"
)

// OwnerKeys are the response item types that may carry the session owner,
// in lookup order.
var OwnerKeys = []string{"UserPerson", "UserCompany", "UserApiKey", "UserPaymentServiceProvider"}

// HTTPRemote implements Remote over the signed transport.
type HTTPRemote struct {
	client *transport.Client
	logger *slog.Logger
}

// NewHTTPRemote returns a Remote that talks to the API through client.
func NewHTTPRemote(client *transport.Client, log *slog.Logger) *HTTPRemote {
	return &HTTPRemote{client: client, logger: logger.OrDiscard(log)}
}

type installationRequest struct {
	ClientPublicKey string `json:"client_public_key"`
}

type deviceServerRequest struct {
	Description  string   `json:"description"`
	Secret       string   `json:"secret"`
	PermittedIPs []string `json:"permitted_ips"`
}

type sessionServerRequest struct {
	Secret string `json:"secret"`
}

type idItem struct {
	ID int64 `json:"id"`
}

type tokenItem struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

type serverPublicKeyItem struct {
	ServerPublicKey string `json:"server_public_key"`
}

// Install posts the client public key. The request is neither signed nor
// authenticated. When the response carries a server signature it must
// verify under the server key the response itself delivers.
func (r *HTTPRemote) Install(ctx context.Context, clientPublicKeyPEM string) (Installation, error) {
	res, resp, err := transport.SendUnverified[transport.Items](ctx, r.client, transport.Request{
		Method: http.MethodPost,
		Path:   PathInstallation,
		Body:   installationRequest{ClientPublicKey: clientPublicKeyPEM},
	})
	if err != nil {
		return Installation{}, err
	}

	if !res.IsSuccess() {
		return Installation{}, res.Error
	}

	var (
		id    idItem
		token tokenItem
		key   serverPublicKeyItem
	)

	if err := find(res.Value, "Id", &id); err != nil {
		return Installation{}, err
	}

	if err := find(res.Value, "Token", &token); err != nil {
		return Installation{}, err
	}

	if err := find(res.Value, "ServerPublicKey", &key); err != nil {
		return Installation{}, err
	}

	if _, err := httpsig.NewVerifierFromPEM(key.ServerPublicKey); err != nil {
		return Installation{}, err
	}

	if err := r.checkFirstUse(resp, key.ServerPublicKey); err != nil {
		return Installation{}, err
	}

	return Installation{ID: id.ID, Token: token.Token, ServerPublicKey: key.ServerPublicKey}, nil
}

func (r *HTTPRemote) checkFirstUse(resp *transport.Response, serverPublicKeyPEM string) error {
	signature := resp.Header.Get(httpsig.HeaderServerSignature)
	if signature == "" {
		r.logger.Warn("installation response is unsigned, trusting server key on first use",
			slog.String("request_id", resp.RequestID),
		)

		return nil
	}

	ok, err := httpsig.Verify(resp.Body, signature, serverPublicKeyPEM)
	if err != nil {
		return err
	}

	if !ok {
		r.logger.Error("installation response does not match the server key it carries",
			slog.String("request_id", resp.RequestID),
		)

		return httpsig.ErrSignatureMismatch
	}

	return nil
}

// RegisterDevice posts the api key as a device secret, authenticated with
// the installation token.
func (r *HTTPRemote) RegisterDevice(ctx context.Context, sess session.Context, apiKey, description string) (string, error) {
	res, err := transport.SendWithToken[transport.Items](ctx, r.client, transport.Request{
		Method: http.MethodPost,
		Path:   PathDeviceServer,
		Body: deviceServerRequest{
			Description:  description,
			Secret:       apiKey,
			PermittedIPs: []string{},
		},
	}, sess.InstallationToken, sess.ServerPublicKey)
	if err != nil {
		return "", err
	}

	if !res.IsSuccess() {
		return "", res.Error
	}

	var id idItem
	if err := find(res.Value, "Id", &id); err != nil {
		return "", err
	}

	if id.ID == 0 {
		return "", fmt.Errorf("%w: device id is zero", transport.ErrUnexpectedResponse)
	}

	return strconv.FormatInt(id.ID, 10), nil
}

// CreateSession posts the api key to open a session, authenticated with the
// installation token. The owner is the first user item in the response.
func (r *HTTPRemote) CreateSession(ctx context.Context, sess session.Context, apiKey string) (SessionGrant, error) {
	res, err := transport.SendWithToken[transport.Items](ctx, r.client, transport.Request{
		Method: http.MethodPost,
		Path:   PathSessionServer,
		Body:   sessionServerRequest{Secret: apiKey},
	}, sess.InstallationToken, sess.ServerPublicKey)
	if err != nil {
		return SessionGrant{}, err
	}

	if !res.IsSuccess() {
		return SessionGrant{}, res.Error
	}

	var token tokenItem
	if err := find(res.Value, "Token", &token); err != nil {
		return SessionGrant{}, err
	}

	var owner idItem

	key, err := res.Value.FindFirst(&owner, OwnerKeys...)
	if err != nil {
		return SessionGrant{}, err
	}

	if key == "" {
		return SessionGrant{}, fmt.Errorf("%w: no user item in session response", transport.ErrUnexpectedResponse)
	}

	return SessionGrant{ID: token.ID, Token: token.Token, OwnerID: owner.ID}, nil
}

func find(items transport.Items, key string, out any) error {
	found, err := items.Find(key, out)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: missing %s item", transport.ErrUnexpectedResponse, key)
	}

	return nil
}

var _ Remote = (*HTTPRemote)(nil)

// IsRemoteError reports whether err carries an application error returned
// by the remote API.
func IsRemoteError(err error) bool {
	var env *transport.ErrorEnvelope
	return errors.As(err, &env)
}
