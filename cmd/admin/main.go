// Package main provides reviewer management utilities for KeNHAVATE.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"kenhavate/internal/config"
	"kenhavate/internal/database"
	"kenhavate/internal/middleware"
	"kenhavate/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <user_id>      - Grant reviewer access")
		fmt.Println("  go run ./cmd/admin demote <user_id>       - Revoke reviewer access")
		fmt.Println("  go run ./cmd/admin list-admins            - List all reviewers")
		fmt.Println("  go run ./cmd/admin token <user_id> [ttl]  - Mint an API token (development)")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		setAdmin(db, os.Args[2], command == "promote")

	case "list-admins":
		listAdmins(db)

	case "token":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin token <user_id> [ttl]")
			os.Exit(1)
		}
		if cfg.IsProduction() {
			log.Fatal("Refusing to mint tokens in production")
		}
		ttl := 24 * time.Hour
		if len(os.Args) > 3 {
			if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
				log.Fatalf("Invalid ttl %q: %v", os.Args[3], err)
			}
		}
		mintToken(db, cfg.JWTSecret, os.Args[2], ttl)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func findUser(db *gorm.DB, userID string) models.User {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}
	return user
}

func setAdmin(db *gorm.DB, userID string, admin bool) {
	user := findUser(db, userID)
	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%t\n", user.Name, user.ID, admin)
		return
	}

	if err := db.Model(&user).Update("is_admin", admin).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Name, user.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch reviewers: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No reviewers found in the system")
		return
	}

	fmt.Println("\n📋 Current Reviewers:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}

func mintToken(db *gorm.DB, secret, userID string, ttl time.Duration) {
	if _, err := strconv.ParseUint(userID, 10, 64); err != nil {
		log.Fatalf("Invalid user ID %q", userID)
	}
	user := findUser(db, userID)
	token, err := middleware.IssueToken(secret, user.ID, ttl)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
