package main

import (
	"os"

	"github.com/kadrlabs/anthropic-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
