package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

type TestConfiguration struct {
	gorm.Model
	Title                  string
	Description            string
	TotalQuestions         int                 `gorm:"default:25"`
	TimeLimitMinutes       int                 `gorm:"default:30"`
	PassingScorePercentage float64             `gorm:"default:70"`
	MaxAttempts            int                 `gorm:"default:3"`
	IsActive               bool                `gorm:"default:true"`
	Rules                  []TestSelectionRule `gorm:"foreignKey:TestConfigID"`
}

// TestSelectionRule is one (category, difficulty, count) quota used by the
// rule-weighted selector.
type TestSelectionRule struct {
	gorm.Model
	TestConfigID  uint    `gorm:"not null;index"`
	CategoryID    uint    `gorm:"not null"`
	Difficulty    string  `gorm:"not null"`
	QuestionCount int     `gorm:"not null"`
	Weight        float64 `gorm:"default:1"`
}

type TestSession struct {
	gorm.Model
	UserID           uint   `gorm:"not null;uniqueIndex:idx_user_config_attempt"`
	TestConfigID     uint   `gorm:"not null;uniqueIndex:idx_user_config_attempt"`
	AttemptNumber    int    `gorm:"not null;uniqueIndex:idx_user_config_attempt"`
	Status           string `gorm:"default:in_progress;index"`
	MaxPossibleScore int
	TotalScore       int
	PercentageScore  float64
	TimeTakenSeconds int
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// TestResponse rows are append-only: MCQ sessions do not allow answer
// revision, so a repeated submission records a second row.
type TestResponse struct {
	gorm.Model
	SessionID         uint `gorm:"not null;index"`
	QuestionID        uint `gorm:"not null"`
	SelectedOptionIDs datatypes.JSON
	IsCorrect         bool
	PointsEarned      int
	TimeTakenSeconds  int
}

// TestAnalytics is the running (user, config) rollup updated after every
// completed session.
type TestAnalytics struct {
	gorm.Model
	UserID          uint `gorm:"not null;uniqueIndex:idx_user_test_config"`
	TestConfigID    uint `gorm:"not null;uniqueIndex:idx_user_test_config"`
	TotalAttempts   int
	BestScore       float64
	AverageScore    float64
	FirstPassedAt   *time.Time
	LastAttemptedAt *time.Time
}
