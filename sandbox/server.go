package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/keys"
	"github.com/vitalvas/bunq/logger"
)

// BasePath is the API root served by the sandbox.
const BasePath = "/v1"

const (
	DefaultOwnerID     = 42
	DefaultDisplayName = "Sandbox User"
	DefaultUserType    = "UserPerson"
)

var errUnknownToken = errors.New("sandbox: unknown authentication token")

// Config configures a Server.
type Config struct {
	// APIKey is the only secret accepted at registration and session
	// creation. Empty accepts any non-empty secret.
	APIKey string

	OwnerID     int64
	DisplayName string

	// UserType is the response item type of the owner, for example
	// UserPerson or UserCompany.
	UserType string

	// Keys is the server key pair. A fresh one is generated when nil.
	Keys *keys.KeyPair

	Logger *slog.Logger
}

// Faults alter responses to exercise client failure paths.
type Faults struct {
	// TamperResponses changes every signed response body after signing.
	TamperResponses bool

	// UnsignedInstallation omits the signature on installation responses.
	UnsignedInstallation bool
}

// Stats counts handled requests per endpoint.
type Stats struct {
	Installations int
	Registrations int
	Sessions      int
	UserRequests  int
}

type installation struct {
	id        int64
	clientKey httpsig.Verifier
	devices   []int64
}

// Server is the fake remote. It implements http.Handler.
type Server struct {
	cfg    Config
	keys   *keys.KeyPair
	logger *slog.Logger
	router chi.Router

	mu            sync.Mutex
	nextID        int64
	installations map[string]*installation
	sessions      map[string]*installation
	faults        Faults
	stats         Stats
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.OwnerID == 0 {
		cfg.OwnerID = DefaultOwnerID
	}

	if cfg.DisplayName == "" {
		cfg.DisplayName = DefaultDisplayName
	}

	if cfg.UserType == "" {
		cfg.UserType = DefaultUserType
	}

	kp := cfg.Keys
	if kp == nil {
		var err error

		kp, err = keys.Generate()
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:           cfg,
		keys:          kp,
		logger:        logger.OrDiscard(cfg.Logger),
		nextID:        1000,
		installations: make(map[string]*installation),
		sessions:      make(map[string]*installation),
	}

	if err := s.routes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) routes() error {
	verify, err := httpsig.Middleware(httpsig.MiddlewareConfig{
		Resolver: s.resolveClientKey,
		OnError:  s.onSignatureError,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.recovery)

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/installation", s.handleInstallation)

		r.Group(func(r chi.Router) {
			r.Use(verify)

			r.Post("/device-server", s.handleDeviceServer)
			r.Post("/session-server", s.handleSessionServer)
			r.Get("/user", s.handleUser)
			r.Get("/user/{userID}", s.handleUser)
		})
	})

	s.router = r

	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// PublicKeyPEM returns the server public key handed out at installation.
func (s *Server) PublicKeyPEM() string {
	return s.keys.PublicKeyPEM()
}

// SetFaults replaces the active faults.
func (s *Server) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults = f
}

// ExpireSessions invalidates every session token issued so far.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.sessions)
}

// Stats returns the request counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("sandbox listening", slog.String("address", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("sandbox failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

// resolveClientKey finds the client key registered for the token in the
// authentication header.
func (s *Server) resolveClientKey(r *http.Request) (httpsig.Verifier, error) {
	token := r.Header.Get(httpsig.HeaderClientAuthentication)

	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.installations[token]; ok {
		return inst.clientKey, nil
	}

	if inst, ok := s.sessions[token]; ok {
		return inst.clientKey, nil
	}

	return nil, errUnknownToken
}

func (s *Server) onSignatureError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("request rejected",
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	if errors.Is(err, errUnknownToken) {
		s.writeError(w, http.StatusUnauthorized, "Insufficient authorisation.")
		return
	}

	s.writeError(w, http.StatusUnauthorized, "Request signature is invalid.")
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}
