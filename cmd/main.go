package main

import (
	"log"
	"os"

	"quest-bot/internal/cli"
)

func main() {
	log.SetPrefix("quest-bot ")
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
