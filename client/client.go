package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vitalvas/bunq/config"
	"github.com/vitalvas/bunq/handshake"
	"github.com/vitalvas/bunq/keys"
	"github.com/vitalvas/bunq/logger"
	"github.com/vitalvas/bunq/session"
	"github.com/vitalvas/bunq/transport"
)

// DefaultDeviceDescription is registered when Options.DeviceDescription is empty.
const DefaultDeviceDescription = "bunq-go"

// ErrNoAPIKey is returned by New without an api key.
var ErrNoAPIKey = errors.New("client: api key is required")

// Options configures New.
type Options struct {
	BaseURL           string
	APIKey            string
	DeviceDescription string
	AppName           string

	// Keys is the client key pair. A new one is generated when nil; reusing
	// the key the context was installed with is required for a persisted
	// context to stay valid.
	Keys *keys.KeyPair

	// Store persists the context. Defaults to a MemoryStore.
	Store session.Store

	HTTP   transport.Doer
	Logger *slog.Logger
}

// Client is a live connection to the API.
type Client struct {
	apiKey      string
	description string
	keys        *keys.KeyPair
	transport   *transport.Client
	owner       *handshake.Owner
	logger      *slog.Logger
}

// New loads the stored context and runs the missing handshake steps.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	log := logger.OrDiscard(opts.Logger)

	kp := opts.Keys
	if kp == nil {
		var err error

		kp, err = keys.Generate()
		if err != nil {
			return nil, err
		}
	}

	store := opts.Store
	if store == nil {
		store = session.NewMemoryStore()
	}

	description := opts.DeviceDescription
	if description == "" {
		description = DefaultDeviceDescription
	}

	tc, err := transport.New(transport.Config{
		BaseURL:   opts.BaseURL,
		UserAgent: opts.AppName,
		HTTP:      opts.HTTP,
		Signer:    kp,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	machine := handshake.NewMachine(kp, handshake.NewHTTPRemote(tc, log), log)

	owner, err := handshake.LoadOwner(ctx, machine, store)
	if err != nil {
		return nil, fmt.Errorf("client: load context: %w", err)
	}

	c := &Client{
		apiKey:      opts.APIKey,
		description: description,
		keys:        kp,
		transport:   tc,
		owner:       owner,
		logger:      log,
	}

	if _, err := owner.EnsureLive(ctx, c.apiKey, c.description); err != nil {
		return nil, err
	}

	log.Info("client ready",
		slog.Any("key", kp),
		slog.Int64("owner_id", owner.Snapshot().OwnerID),
	)

	return c, nil
}

// FromConfig builds Options from cfg, loading or creating the key file and
// choosing the context store, and calls New.
func FromConfig(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	kp, created, err := keys.LoadOrGenerate(cfg.KeyPath)
	if err != nil {
		return nil, err
	}

	if created {
		logger.OrDiscard(log).Info("client key created", slog.String("path", cfg.KeyPath), slog.Any("key", kp))
	}

	return New(ctx, Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		DeviceDescription: cfg.DeviceDescription,
		AppName:           cfg.AppName,
		Keys:              kp,
		Store:             StoreFromConfig(cfg),
		HTTP:              &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:            log,
	})
}

// StoreFromConfig returns the sealed store when a passphrase is configured
// and the plain file store otherwise.
func StoreFromConfig(cfg *config.Config) session.Store {
	if cfg.Encrypted() {
		return session.NewEncryptedFileStore(cfg.ContextPath, cfg.ContextPassphrase)
	}

	return session.NewFileStore(cfg.ContextPath)
}

// Context returns a snapshot of the current context.
func (c *Client) Context() session.Context {
	return c.owner.Snapshot()
}

// Keys returns the client key pair.
func (c *Client) Keys() *keys.KeyPair {
	return c.keys
}

// Transport returns the underlying signed transport.
func (c *Client) Transport() *transport.Client {
	return c.transport
}

// Send performs a signed call with the current session.
func Send[T any](ctx context.Context, c *Client, req transport.Request) (transport.Result[T], error) {
	return transport.Send[T](ctx, c.transport, req, c.owner.Snapshot())
}
