// Command journalctl inspects and maintains a trade journal database from
// the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(&rootConfig{}).Execute(); err != nil {
		os.Exit(1)
	}
}
