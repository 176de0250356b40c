package httpsig

import (
	"errors"
	"net/http"
)

// Verify reports whether signature is a valid signature of body under the
// RSA public key in publicKeyPEM.
//
// A signature that decodes but does not match returns (false, nil). An
// unparseable signature returns ErrMalformedSignature and an unparseable key
// returns ErrInvalidKey.
func Verify(body []byte, signature, publicKeyPEM string) (bool, error) {
	verifier, err := NewVerifierFromPEM(publicKeyPEM)
	if err != nil {
		return false, err
	}

	return VerifyWith(verifier, body, signature)
}

// VerifyWith is Verify with an already constructed Verifier.
func VerifyWith(verifier Verifier, body []byte, signature string) (bool, error) {
	sig, err := DecodeSignature(signature)
	if err != nil {
		return false, err
	}

	if err := verifier.Verify(body, sig); err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// VerifyResponse reads the whole response body and checks it against the
// X-Bunq-Server-Signature header. The body is returned only when the
// signature verifies; on any failure it is discarded and nil is returned.
//
// The response body is replaced with a fresh reader over the same bytes so
// that callers holding resp can still close it.
func VerifyResponse(resp *http.Response, verifier Verifier) ([]byte, error) {
	body, err := readAndRestoreResponseBody(resp)
	if err != nil {
		return nil, err
	}

	signature := resp.Header.Get(HeaderServerSignature)
	if signature == "" {
		return nil, ErrSignatureNotFound
	}

	ok, err := VerifyWith(verifier, body, signature)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrSignatureMismatch
	}

	return body, nil
}

// VerifyRequest checks the X-Bunq-Client-Signature header of an incoming
// request against its body. Requests without a body need no signature.
func VerifyRequest(r *http.Request, verifier Verifier) error {
	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	signature := r.Header.Get(HeaderClientSignature)
	if signature == "" {
		return ErrSignatureNotFound
	}

	ok, err := VerifyWith(verifier, body, signature)
	if err != nil {
		return err
	}

	if !ok {
		return ErrSignatureMismatch
	}

	return nil
}
