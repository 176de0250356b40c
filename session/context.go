package session

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned when a context holds a field whose
// prerequisites are missing.
var ErrInconsistent = errors.New("session: inconsistent context")

// State is the handshake progress a Context has reached.
type State int

const (
	// StateFresh has no installation.
	StateFresh State = iota
	// StateInstalled holds an installation token and the server key.
	StateInstalled
	// StateRegistered also holds a device id.
	StateRegistered
	// StateLive also holds a session token and owner id.
	StateLive
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateInstalled:
		return "installed"
	case StateRegistered:
		return "registered"
	case StateLive:
		return "live"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Context is the bundle of handshake artifacts. A zero field means the
// artifact has not been obtained yet; the zero Context is a fresh one.
//
// Context is a value: handshake steps return a new Context and never modify
// the one they were given.
type Context struct {
	InstallationToken string
	ServerPublicKey   string
	DeviceID          string
	SessionToken      string
	OwnerID           int64
}

// IsInstalled reports whether the installation token and server public key
// are both present.
func (c Context) IsInstalled() bool {
	return c.InstallationToken != "" && c.ServerPublicKey != ""
}

// IsRegistered reports whether the context is installed and has a device id.
func (c Context) IsRegistered() bool {
	return c.IsInstalled() && c.DeviceID != ""
}

// IsLive reports whether the context is registered and holds a session.
func (c Context) IsLive() bool {
	return c.IsRegistered() && c.SessionToken != "" && c.OwnerID != 0
}

// State returns the furthest state the context satisfies.
func (c Context) State() State {
	switch {
	case c.IsLive():
		return StateLive
	case c.IsRegistered():
		return StateRegistered
	case c.IsInstalled():
		return StateInstalled
	default:
		return StateFresh
	}
}

// Validate checks the field dependency order: session fields require a
// device id, which requires an installation.
func (c Context) Validate() error {
	if (c.InstallationToken == "") != (c.ServerPublicKey == "") {
		return fmt.Errorf("%w: installation token and server public key must be set together", ErrInconsistent)
	}

	if c.DeviceID != "" && !c.IsInstalled() {
		return fmt.Errorf("%w: device id without installation", ErrInconsistent)
	}

	if (c.SessionToken != "" || c.OwnerID != 0) && !c.IsRegistered() {
		return fmt.Errorf("%w: session without device registration", ErrInconsistent)
	}

	if (c.SessionToken == "") != (c.OwnerID == 0) {
		return fmt.Errorf("%w: session token and owner id must be set together", ErrInconsistent)
	}

	return nil
}

// WithoutSession returns a copy of c with the session artifacts cleared.
// It is used to create a replacement session once the current one expired.
func (c Context) WithoutSession() Context {
	return Context{
		InstallationToken: c.InstallationToken,
		ServerPublicKey:   c.ServerPublicKey,
		DeviceID:          c.DeviceID,
	}
}
