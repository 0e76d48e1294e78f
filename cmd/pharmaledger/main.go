// Command pharmaledger runs the PharmaLedger login and batch verification core.
package main

import "github.com/pharmaledger/pharmaledger/cmd/pharmaledger/cmd"

func main() {
	cmd.Execute()
}
