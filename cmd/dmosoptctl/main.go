// Command dmosoptctl is the auxiliary CLI around the optimizer core (spec
// section 6): it is not part of the core module, only a thin consumer of
// config, scheduler, storage, and moasmo.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
