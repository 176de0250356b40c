// Package transport sends requests to the remote API with body signatures
// and checks the signature of every response before decoding it.
//
// A response whose signature does not verify under the server public key is
// never decoded: Send returns httpsig.ErrSignatureMismatch and no value.
//
// Bodies are JSON encoded and canonicalized (RFC 8785) before signing so
// that the signed bytes are exactly the transmitted bytes.
//
//	c, err := transport.New(transport.Config{
//	    BaseURL:   "https://public-api.sandbox.bunq.com/v1",
//	    UserAgent: "my-app",
//	    Signer:    keyPair,
//	})
//	res, err := transport.Send[transport.Items](ctx, c, transport.Request{
//	    Method: http.MethodGet,
//	    Path:   "user",
//	}, sess)
package transport
