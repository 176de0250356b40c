package sandbox

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vitalvas/bunq/httpsig"
)

type item map[string]any

type idObject struct {
	ID int64 `json:"id"`
}

type tokenObject struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

type serverPublicKeyObject struct {
	ServerPublicKey string `json:"server_public_key"`
}

type userObject struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleInstallation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientPublicKey string `json:"client_public_key"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Error parsing body.")
		return
	}

	verifier, err := httpsig.NewVerifierFromPEM(req.ClientPublicKey)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Client public key is invalid.")
		return
	}

	s.mu.Lock()
	inst := &installation{id: s.newID(), clientKey: verifier}
	token := newToken()
	tokenID := s.newID()
	s.installations[token] = inst
	s.stats.Installations++
	unsigned := s.faults.UnsignedInstallation
	s.mu.Unlock()

	s.logger.Debug("installation created", slog.Int64("installation_id", inst.id))

	body := []item{
		{"Id": idObject{ID: inst.id}},
		{"Token": tokenObject{ID: tokenID, Token: token}},
		{"ServerPublicKey": serverPublicKeyObject{ServerPublicKey: s.keys.PublicKeyPEM()}},
	}

	if unsigned {
		s.writeUnsigned(w, http.StatusOK, map[string]any{"Response": body})
		return
	}

	s.writeResponse(w, http.StatusOK, body)
}

func (s *Server) handleDeviceServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description  string   `json:"description"`
		Secret       string   `json:"secret"`
		PermittedIPs []string `json:"permitted_ips"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Error parsing body.")
		return
	}

	if !s.secretAccepted(req.Secret) {
		s.writeError(w, http.StatusBadRequest, "User credentials are incorrect. Incorrect API key or IP address.")
		return
	}

	token := r.Header.Get(httpsig.HeaderClientAuthentication)

	s.mu.Lock()
	inst, ok := s.installations[token]
	var id int64
	if ok {
		id = s.newID()
		inst.devices = append(inst.devices, id)
		s.stats.Registrations++
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Insufficient authorisation.")
		return
	}

	s.logger.Debug("device registered", slog.Int64("device_id", id), slog.String("description", req.Description))

	s.writeResponse(w, http.StatusOK, []item{{"Id": idObject{ID: id}}})
}

func (s *Server) handleSessionServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}

	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Error parsing body.")
		return
	}

	if !s.secretAccepted(req.Secret) {
		s.writeError(w, http.StatusBadRequest, "User credentials are incorrect. Incorrect API key or IP address.")
		return
	}

	token := r.Header.Get(httpsig.HeaderClientAuthentication)

	s.mu.Lock()
	inst, ok := s.installations[token]
	registered := ok && len(inst.devices) > 0

	var (
		sessionID    int64
		tokenID      int64
		sessionToken string
	)

	if registered {
		sessionID = s.newID()
		tokenID = s.newID()
		sessionToken = newToken()
		s.sessions[sessionToken] = inst
		s.stats.Sessions++
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Insufficient authorisation.")
		return
	}

	if !registered {
		s.writeError(w, http.StatusBadRequest, "No device registered for this installation.")
		return
	}

	s.logger.Debug("session created", slog.Int64("session_id", sessionID))

	s.writeResponse(w, http.StatusOK, []item{
		{"Id": idObject{ID: sessionID}},
		{"Token": tokenObject{ID: tokenID, Token: sessionToken}},
		{s.cfg.UserType: userObject{ID: s.cfg.OwnerID, DisplayName: s.cfg.DisplayName}},
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(httpsig.HeaderClientAuthentication)

	s.mu.Lock()
	_, ok := s.sessions[token]
	s.stats.UserRequests++
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Insufficient authorisation.")
		return
	}

	if raw := chi.URLParam(r, "userID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id != s.cfg.OwnerID {
			s.writeError(w, http.StatusNotFound, "User not found.")
			return
		}
	}

	s.writeResponse(w, http.StatusOK, []item{
		{s.cfg.UserType: userObject{ID: s.cfg.OwnerID, DisplayName: s.cfg.DisplayName}},
	})
}

func (s *Server) secretAccepted(secret string) bool {
	if secret == "" {
		return false
	}

	return s.cfg.APIKey == "" || secret == s.cfg.APIKey
}
