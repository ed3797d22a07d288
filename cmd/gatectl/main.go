// Command gatectl is the operator CLI for the gateway: schema migrations,
// user seeding and password hashing.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
