package handshake

import "errors"

var (
	// ErrPrecondition is returned when a step is called before the step it
	// depends on. No remote call is made.
	ErrPrecondition = errors.New("handshake: precondition failed")

	// ErrInstallation wraps failures of the installation step.
	ErrInstallation = errors.New("handshake: installation failed")

	// ErrRegistration wraps failures of the device registration step.
	ErrRegistration = errors.New("handshake: device registration failed")

	// ErrSessionCreation wraps failures of the session creation step.
	ErrSessionCreation = errors.New("handshake: session creation failed")
)
