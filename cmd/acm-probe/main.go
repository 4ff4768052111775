// Command acm-probe is a thin demo binary exercising the acm client
// library end to end: get/publish/remove one value, or watch one for
// change notifications until interrupted. It is not a general-purpose
// config-management CLI.
package main

import (
	"fmt"
	"os"

	"github.com/confhub/acm-client-go/cmd/acm-probe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "acm-probe: %v\n", err)
		os.Exit(1)
	}
}
