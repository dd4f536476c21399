// Command adduser creates an account directly in the configured store.
//
//	ADDUSER_PASSWORD=... adduser -username alice -email alice@example.com -name "Alice" -role teacher
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"attendance-portal/internal/config"
	"attendance-portal/internal/store"
	"attendance-portal/internal/users"
)

func main() {
	username := flag.String("username", "", "login name (required)")
	email := flag.String("email", "", "email address (required)")
	name := flag.String("name", "", "full name (defaults to username)")
	role := flag.String("role", "teacher", "admin or teacher")
	flag.Parse()

	if *username == "" || *email == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *name == "" {
		*name = *username
	}

	password := os.Getenv("ADDUSER_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StoreBackend == config.BackendMemory {
		log.Fatalf("STORE_BACKEND=memory does not persist; set postgres or mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close(ctx)

	u, err := users.NewService(db, 0).Register(ctx, users.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: password,
		FullName: *name,
		Role:     *role,
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	log.Printf("created %s user %s (id %s)", u.Role, u.Username, u.ID)
}
