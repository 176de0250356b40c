// Package sandbox is an in-process fake of the remote API. It implements
// installation, device registration, session creation and the user
// endpoint, checks client body signatures and signs every response with its
// own key.
//
// Faults can be switched on to exercise the client integrity checks:
// tampered response bodies, an unsigned installation response, expired
// sessions.
//
//	srv, _ := sandbox.New(sandbox.Config{APIKey: "api-key-123"})
//	ts := httptest.NewServer(srv)
//	client := ... BaseURL: ts.URL + sandbox.BasePath ...
package sandbox
