// Command talon is the Talon CLI entrypoint.
package main

import (
	"os"

	"github.com/AbdelazizMoustafa10m/Talon/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
