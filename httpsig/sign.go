package httpsig

import (
	"encoding/base64"
	"net/http"
	"strconv"
)

// EncodeSignature returns the wire form of a raw signature.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// DecodeSignature parses the wire form of a signature. Empty or non-base64
// input yields ErrMalformedSignature.
func DecodeSignature(signature string) ([]byte, error) {
	if signature == "" {
		return nil, ErrMalformedSignature
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return nil, ErrMalformedSignature
	}

	return sig, nil
}

// SignBody signs body and returns the encoded signature.
func SignBody(signer Signer, body []byte) (string, error) {
	if signer == nil {
		return "", ErrNoSigner
	}

	sig, err := signer.Sign(body)
	if err != nil {
		return "", err
	}

	return EncodeSignature(sig), nil
}

// SignRequest signs the request body in-place by setting the
// X-Bunq-Client-Signature header. Requests without a body are not signed.
// The body is restored so it can be sent afterwards.
func SignRequest(r *http.Request, signer Signer) error {
	if signer == nil {
		return ErrNoSigner
	}

	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	encoded, err := SignBody(signer, body)
	if err != nil {
		return err
	}

	r.Header.Set(HeaderClientSignature, encoded)

	return nil
}

// WriteSigned writes body with the given status code and sets the
// X-Bunq-Server-Signature header computed over exactly those bytes.
func WriteSigned(w http.ResponseWriter, status int, body []byte, signer Signer) error {
	encoded, err := SignBody(signer, body)
	if err != nil {
		return err
	}

	w.Header().Set(HeaderServerSignature, encoded)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	_, err = w.Write(body)

	return err
}
