// Command stratnet hosts the strategic-network layout engine: an HTTP,
// GraphQL and WebSocket service, a terminal UI and offline layout tools.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
