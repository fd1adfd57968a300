package main

import (
	"log"

	"quiz-progression-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
