package main

import (
	"github.com/tacogips/doxx/internal/cli"
)

// Version information is set via ldflags on the internal/version package.
func main() {
	cli.Execute()
}
