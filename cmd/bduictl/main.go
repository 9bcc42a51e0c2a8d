// Command bduictl is a reference host for the render engine core: it loads
// a scenario document, materializes its stores and executes its actions
// against no-op navigation/UI/system collaborators, printing the intents
// and store mutations that would otherwise drive a real client.
package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/MrtnvM/render-engine/cmd/bduictl/cmd"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "bduictl: GOMAXPROCS: %v\n", err)
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
