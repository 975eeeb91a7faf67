// Command zenscan is the command line front end for the zenscan library.
package main

import (
	"os"

	"github.com/nonibytes/zenscan/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
