package main

import (
	"os"

	"github.com/sohta/kotoba/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
