// Command ochre applies and destroys content-addressed components against
// a filesystem registry.
package main

import (
	"fmt"
	"os"

	"github.com/blythed/ochre/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
