package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/balkashynov/shiftr/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// .env is optional; SHIFTR_* variables from it feed the config
	_ = godotenv.Load()

	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
