package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/radityabs/huddle-backend/config"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// Seeds a verified demo account so login can be exercised without going
// through email verification.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@huddle.local"
	username := "demoUser"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, full_name, dob, username, password_hash, bio, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (email) DO UPDATE SET is_verified = TRUE, updated_at = now()
		RETURNING id
	`, email, "Demo User", "1990-01-01", username, hash, "Seeded demo account").Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", id, email, username, password)
}
