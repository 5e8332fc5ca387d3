package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	GrandtestInProgress = "in_progress"
	GrandtestCompleted  = "completed"
	GrandtestAbandoned  = "abandoned"
	GrandtestTimeout    = "timeout"
)

type GrandtestQuestion struct {
	gorm.Model
	CourseID      uint           `gorm:"not null;uniqueIndex:idx_course_order"`
	OrderIndex    int            `gorm:"not null;uniqueIndex:idx_course_order"`
	QuestionText  string         `gorm:"not null"`
	Options       datatypes.JSON // {"a": "...", "b": "..."}
	CorrectAnswer string         `gorm:"not null"`
	Difficulty    string         `gorm:"default:medium"` // easy, medium, hard
	Points        int            `gorm:"default:1"`
	IsActive      bool           `gorm:"default:true"`
}

type GrandtestAttempt struct {
	gorm.Model
	UserID            uint `gorm:"not null;index"`
	CourseID          uint `gorm:"not null;index"`
	EnrollmentID      uint `gorm:"not null"`
	StartedAt         time.Time
	CompletedAt       *time.Time
	TimeLimitMinutes  int `gorm:"default:5"`
	TotalQuestions    int `gorm:"default:5"`
	QuestionsAnswered int
	CorrectAnswers    int
	ScorePercentage   float64
	// Passed is derived server-side at completion, never client-supplied.
	Passed bool
	Status string `gorm:"default:in_progress;index"`
}

type GrandtestResponse struct {
	gorm.Model
	AttemptID        uint `gorm:"not null;uniqueIndex:idx_gt_attempt_question"`
	QuestionID       uint `gorm:"not null;uniqueIndex:idx_gt_attempt_question"`
	UserAnswer       string
	IsCorrect        bool
	PointsEarned     int
	TimeSpentSeconds int
}
