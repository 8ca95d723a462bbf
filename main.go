package main

import (
	"os"

	"github.com/vinhdn/inputbridge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
