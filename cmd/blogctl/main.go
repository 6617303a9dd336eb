// Command blogctl runs migrations, seeds demo data and prints the API description.
package main

import (
	"fmt"
	"os"

	"blogapp/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
