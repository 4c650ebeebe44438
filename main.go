package main

import (
	"os"

	"github.com/thedjpetersen/flow-like-water/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
