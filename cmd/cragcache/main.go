package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cragnet/cragcache/internal/application/startup"
	"github.com/cragnet/cragcache/internal/infrastructure/security"
	"github.com/cragnet/cragcache/pkg/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// cragcache hash-password <password> prints a value for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := security.HashPassword(os.Args[2])
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := startup.Initialize(cfg); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}

	log.Println("Application has shut down gracefully.")
}
