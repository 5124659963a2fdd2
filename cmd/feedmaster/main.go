package main

import (
	"os"

	"github.com/femavibes/feedmaster/cmd/feedmaster/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
