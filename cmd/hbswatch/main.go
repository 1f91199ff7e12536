// hbswatch recompiles Handlebars templates into JavaScript whenever they change.
package main

import (
	"os"

	"github.com/hupe1980/hbswatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
