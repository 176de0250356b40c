package httpsig

import "errors"

// Signing errors.
var (
	// ErrNoSigner is returned when no Signer is configured.
	ErrNoSigner = errors.New("httpsig: signer must not be nil")
)

// Verification errors.
var (
	// ErrNoResolver is returned when MiddlewareConfig has no KeyResolver.
	ErrNoResolver = errors.New("httpsig: key resolver must not be nil")

	// ErrSignatureNotFound is returned when a message that must be signed
	// carries no signature header.
	ErrSignatureNotFound = errors.New("httpsig: signature not found")

	// ErrMalformedSignature is returned when the signature header is present
	// but cannot be decoded.
	ErrMalformedSignature = errors.New("httpsig: malformed signature")

	// ErrSignatureMismatch is returned when a well-formed signature does not
	// verify against the body and the expected public key.
	ErrSignatureMismatch = errors.New("httpsig: signature verification failed")
)

// Key material errors.
var (
	// ErrInvalidKey is returned when key material is invalid (nil, not RSA,
	// insufficient size, unparseable PEM).
	ErrInvalidKey = errors.New("httpsig: invalid key material")
)
