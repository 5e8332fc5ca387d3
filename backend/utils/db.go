package utils

import (
	"fmt"

	"project/backend/config"
	"project/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the Postgres connection and migrates the schema.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the engines catch and resolve.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates every table the engines touch. Shared with
// the test setup, which runs it against sqlite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.QuestionCategory{},
		&models.Question{},
		&models.QuestionOption{},
		&models.QuizQuestion{},
		&models.TestConfiguration{},
		&models.TestSelectionRule{},
		&models.TestSession{},
		&models.TestResponse{},
		&models.TestAnalytics{},
		&models.DailyTestConfig{},
		&models.DailyTestQuestion{},
		&models.DailyTestProgress{},
		&models.DailyTestAttempt{},
		&models.DailyTestResponse{},
		&models.DailyTestAnalytics{},
		&models.GrandtestQuestion{},
		&models.GrandtestAttempt{},
		&models.GrandtestResponse{},
	)
}
