package main

import (
	"fmt"
	"os"
)

// version is set via ldflags during build
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mpdspl: %v\n", err)
		os.Exit(2)
	}
}
