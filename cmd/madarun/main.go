package main

import (
	"log"
	"os"

	"github.com/arinony/madarun/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file, if present.
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		log.SetFlags(0)
		log.Println("Erreur:", err)
		os.Exit(1)
	}
}
