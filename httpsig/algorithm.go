package httpsig

// Algorithm identifies the body signature algorithm.
type Algorithm string

const (
	// AlgorithmRSAv15SHA256 is RSASSA-PKCS1-v1_5 using SHA-256. It is the only
	// algorithm accepted by the remote API.
	AlgorithmRSAv15SHA256 Algorithm = "rsa-v1_5-sha256"
)

// Header names used by the signature scheme.
const (
	HeaderClientSignature      = "X-Bunq-Client-Signature"
	HeaderServerSignature      = "X-Bunq-Server-Signature"
	HeaderClientAuthentication = "X-Bunq-Client-Authentication"
	HeaderClientRequestID      = "X-Bunq-Client-Request-Id"
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// Signer creates signatures over message bodies.
type Signer interface {
	// Sign produces a signature over the given message bytes.
	Sign(message []byte) ([]byte, error)

	// Algorithm returns the algorithm identifier for this signer.
	Algorithm() Algorithm
}

// Verifier validates signatures over message bodies.
type Verifier interface {
	// Verify checks that signature is valid for the given message bytes.
	// Returns nil on success and ErrSignatureMismatch on failure.
	Verify(message, signature []byte) error

	// Algorithm returns the algorithm identifier for this verifier.
	Algorithm() Algorithm
}
