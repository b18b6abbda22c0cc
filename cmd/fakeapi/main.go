package main

import (
	"log"

	"github.com/aussiebroadwan/classrecord/internal/fakeapi"
)

func main() {
	cfg, err := fakeapi.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := fakeapi.New(*cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
