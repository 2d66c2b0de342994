package main

import (
	"os"

	"github.com/moodtide/moodtide/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
