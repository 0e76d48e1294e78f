//go:build windows

package cmd

import "os"

// gracefulSignals lists the signals that stop "serve" cleanly.
// Windows only delivers Ctrl+C reliably.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
