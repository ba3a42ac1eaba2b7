// lineblame decodes `git blame --line-porcelain` output into per-line
// records and reports on them.
package main

import (
	"os"

	"github.com/ccollicutt/lineblame/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
