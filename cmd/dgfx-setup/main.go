package main

import (
	"os"

	"github.com/oshokin/dgfx-setup/cmd/dgfx-setup/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:]))
}
