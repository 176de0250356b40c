package sandbox

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vitalvas/bunq/httpsig"
)

type errorDetail struct {
	Description           string `json:"error_description"`
	DescriptionTranslated string `json:"error_description_translated"`
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, items []item) {
	s.writeSigned(w, status, map[string]any{"Response": items})
}

func (s *Server) writeError(w http.ResponseWriter, status int, description string) {
	s.writeSigned(w, status, map[string]any{
		"Error": []errorDetail{{Description: description, DescriptionTranslated: description}},
	})
}

// writeSigned signs the encoded body. With TamperResponses set the body is
// altered after signing, keeping its length.
func (s *Server) writeSigned(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	tamper := s.faults.TamperResponses
	s.mu.Unlock()

	if !tamper {
		_ = httpsig.WriteSigned(w, status, body, s.keys)
		return
	}

	sig, err := httpsig.SignBody(s.keys, body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set(httpsig.HeaderServerSignature, sig)
	s.write(w, status, tamperBody(body))
}

// writeUnsigned writes v without a server signature.
func (s *Server) writeUnsigned(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.write(w, status, body)
}

func (s *Server) write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// tamperBody flips the first digit it finds, or the last byte otherwise.
func tamperBody(body []byte) []byte {
	out := append([]byte(nil), body...)

	for i, b := range out {
		if b >= '0' && b <= '9' {
			out[i] = '0' + (b-'0'+1)%10
			return out
		}
	}

	if len(out) > 0 {
		out[len(out)-1] ^= 0x01
	}

	return out
}
