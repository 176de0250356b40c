// bunqctl manages the client key and session context of a bunq-style API
// client and runs a local sandbox of the remote.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
