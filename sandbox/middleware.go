package sandbox

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vitalvas/bunq/httpsig"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request id stored by requestID.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// requestID echoes the client request id, or assigns a time-ordered one when
// the client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httpsig.HeaderClientRequestID)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}

		w.Header().Set(httpsig.HeaderClientRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		next.ServeHTTP(w, r)
	})
}

// recovery turns a handler panic into a signed 500 error envelope.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("handler panic",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.Any("panic", err),
				)

				s.writeError(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
