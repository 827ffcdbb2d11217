package main

import (
	"os"

	"github.com/gupta-soham/goodfoods/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
