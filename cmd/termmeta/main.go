// Command termmeta manages taxonomy term metadata.
package main

import (
	"os"

	"github.com/mesh-intelligence/termmeta/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
