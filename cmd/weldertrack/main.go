// Command weldertrack records welder production output per article and
// month, serves it over HTTP and exchanges JSON backups.
package main

import (
	"context"
	"os"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
