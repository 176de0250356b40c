// Package httpsig implements the body-signature scheme used by the bunq API.
//
// Every request body sent after installation carries an
// X-Bunq-Client-Signature header, and every response carries an
// X-Bunq-Server-Signature header. Both are RSASSA-PKCS1-v1_5 signatures with
// SHA-256 computed over the exact bytes of the HTTP body and encoded as
// standard base64.
//
// # Signing Requests
//
// Use SignRequest to add the client signature to an outgoing request:
//
//	signer, err := httpsig.NewRSAv15Signer(privateKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := httpsig.SignRequest(req, signer); err != nil {
//	    log.Fatal(err)
//	}
//
// # Verifying Responses
//
// VerifyResponse reads the response body and only returns it when the server
// signature matches:
//
//	verifier, err := httpsig.NewVerifierFromPEM(serverPublicKeyPEM)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	body, err := httpsig.VerifyResponse(resp, verifier)
//	if errors.Is(err, httpsig.ErrSignatureMismatch) {
//	    // integrity cannot be established, body is discarded
//	}
//
// Verify is the low level form working on raw bytes:
//
//	ok, err := httpsig.Verify(body, signature, serverPublicKeyPEM)
//
// A signature that does not verify yields (false, nil). A signature that
// cannot be decoded yields ErrMalformedSignature.
//
// # Server Middleware
//
// Middleware verifies client signatures on incoming requests. It returns a
// plain func(http.Handler) http.Handler and works with any router.
package httpsig
