// Command kakuri launches unprivileged Linux containers.
package main

import (
	"os"

	"github.com/unfaded/kakuri/internal/pkg/cli"
)

func main() {
	if cli.DispatchSentinel(os.Args) {
		return
	}
	cli.Execute()
}
