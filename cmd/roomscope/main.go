// Command roomscope normalizes scraped room timetables and answers
// availability queries over the resulting snapshot.
package main

import (
	"os"

	"github.com/runnerr0/roomscope/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
