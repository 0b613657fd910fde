package main

import (
	"os"

	"github.com/bmatch/matchbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
