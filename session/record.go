package session

// Record is the persisted form of a Context. Absent fields are nil and
// omitted from the encoded output.
type Record struct {
	InstallationToken *string `json:"installation_token,omitempty" yaml:"installation_token,omitempty"`
	ServerPublicKey   *string `json:"server_public_key,omitempty" yaml:"server_public_key,omitempty"`
	DeviceID          *string `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	SessionToken      *string `json:"session_token,omitempty" yaml:"session_token,omitempty"`
	OwnerID           *int64  `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
}

// ToRecord converts c to its persisted form.
func (c Context) ToRecord() Record {
	var r Record

	if c.InstallationToken != "" {
		r.InstallationToken = ptr(c.InstallationToken)
	}

	if c.ServerPublicKey != "" {
		r.ServerPublicKey = ptr(c.ServerPublicKey)
	}

	if c.DeviceID != "" {
		r.DeviceID = ptr(c.DeviceID)
	}

	if c.SessionToken != "" {
		r.SessionToken = ptr(c.SessionToken)
	}

	if c.OwnerID != 0 {
		r.OwnerID = ptr(c.OwnerID)
	}

	return r
}

// FromRecord rebuilds a Context from a record. The result is validated so a
// record that skips a step (for example a session token without a device id)
// is rejected with ErrInconsistent.
func FromRecord(r Record) (Context, error) {
	c := Context{
		InstallationToken: deref(r.InstallationToken),
		ServerPublicKey:   deref(r.ServerPublicKey),
		DeviceID:          deref(r.DeviceID),
		SessionToken:      deref(r.SessionToken),
		OwnerID:           deref(r.OwnerID),
	}

	if err := c.Validate(); err != nil {
		return Context{}, err
	}

	return c, nil
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}

	return *p
}
