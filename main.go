package main

import (
	"github.com/joho/godotenv"

	"sanctuary-live/cmd"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cmd.Execute()
}
