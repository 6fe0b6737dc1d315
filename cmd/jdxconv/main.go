// jdxconv - mass spectrum to fixed-grid table converter
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/jdxconv/cmd/jdxconv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
