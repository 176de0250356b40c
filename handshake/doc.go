// Package handshake drives a session.Context from fresh to live.
//
// The three steps run in order:
//
//	Install        client public key  -> installation token, server key
//	Register       api key, device    -> device id
//	CreateSession  api key            -> session token, owner id
//
// Each step is skipped without a remote call when the context already holds
// its result, and refuses to run with ErrPrecondition when the previous step
// has not been completed. A failed step returns its input unchanged.
//
// # Trust on first use
//
// The installation response is the only response that cannot be checked
// against a previously known key: it delivers the server public key itself.
// HTTPRemote verifies its signature against the key it carries when a
// signature is present, which proves self-consistency only, and logs a
// warning otherwise. Anchoring that first key needs an out-of-band channel
// and is left to the caller.
package handshake
