// Package session holds the handshake artifacts shared by every request:
// installation token, server public key, device id, session token and
// owner id.
//
// A Context only ever grows in the order installation, device, session.
// Validate enforces that ordering and FromRecord rejects persisted records
// that violate it. Stores persist a Context in memory, as a plain JSON or
// YAML file, or sealed with a passphrase.
package session
