// Package keys owns the client key pair used to install a device and sign
// request bodies.
//
// A KeyPair is generated once per client identity (RSA, 2048 bits by
// default) and stays stable for the lifetime of the process. The private
// half never leaves the KeyPair except through the explicit file helpers
// (SaveFile, MarshalPrivateKeyPEM) used to reuse an installation across runs.
//
//	kp, err := keys.Generate()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pub := kp.PublicKeyPEM() // sent to the installation endpoint
//	sig, err := kp.Sign(body)
//
// Key files ending in .jwk or .json are stored as a JWK set, anything else
// as PKCS#8 PEM.
package keys
