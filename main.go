package main

import (
	"os"

	"github.com/gemstage/gemstage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
