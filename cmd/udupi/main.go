// Command udupi is a terminal client for the Discover Udupi API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
