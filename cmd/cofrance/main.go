// Command cofrance runs the CoFrance tag annotation engine behind an HTTP
// host bridge.
//
// Commands: serve, version.
package main

import (
	"fmt"
	"os"

	"github.com/yegors/co-france/cmd/cofrance/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
