package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // .env is optional
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
