package main

import (
	"fmt"
	"os"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
