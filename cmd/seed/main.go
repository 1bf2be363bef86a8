package main

import (
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/database"
	"github.com/openreviews/review-square/internal/models"
)

func main() {
	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	// Get admin identity from env
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")

	if adminUsername == "" || adminEmail == "" {
		log.Fatal("Missing enviroment variables: ADMIN_USERNAME, ADMIN_EMAIL")
	}

	// Check if admin with this email already exists
	var admin models.User
	result := database.DB.Where("email = ?", adminEmail).First(&admin)

	if result.Error == nil {
		log.Println("✅ Admin user already exists:", admin.Username)
		log.Println("   Email:", admin.Email)
		return
	}

	// Superusers keep admin powers even if their role field is later
	// edited, matching the management bootstrap semantics.
	now := time.Now().UTC()
	admin = models.User{
		ID:          uuid.New(),
		Username:    adminUsername,
		Email:       adminEmail,
		Role:        models.RoleAdmin,
		Superuser:   true,
		ConfirmedAt: &now,
	}

	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("✅ Admin user created successfully!")
	log.Println("   Username:", admin.Username)
	log.Println("   Email:", admin.Email)
	log.Println("   Sign in via POST /api/v1/auth/signup to receive a confirmation code.")
}
