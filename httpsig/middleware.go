package httpsig

import (
	"net/http"
)

// KeyResolver returns the Verifier for the client that sent r. Returning a
// nil Verifier and nil error lets the request through unverified, which is
// how the installation call is served.
type KeyResolver func(r *http.Request) (Verifier, error)

// MiddlewareConfig configures the server-side signature verification
// middleware.
type MiddlewareConfig struct {
	// Resolver looks up the client key. Required.
	Resolver KeyResolver

	// OnError is called when verification fails. When nil, a plain 401
	// Unauthorized response is sent.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware returns a middleware that verifies client body signatures on
// incoming requests.
//
// It returns ErrNoResolver if MiddlewareConfig.Resolver is nil.
func Middleware(cfg MiddlewareConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolver
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	resolver := cfg.Resolver

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verifier, err := resolver(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			if verifier != nil {
				if err := VerifyRequest(r, verifier); err != nil {
					onError(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// defaultOnError writes a 401 Unauthorized response with no body.
func defaultOnError(w http.ResponseWriter, _ *http.Request, _ error) {
	w.WriteHeader(http.StatusUnauthorized)
}
