package models

import (
	"time"

	"gorm.io/gorm"
)

// Daily progress states. A row moves locked → unlocked → in_progress and
// settles on completed or failed; failed days can re-enter in_progress on
// retake without limit.
const (
	DayLocked     = "locked"
	DayUnlocked   = "unlocked"
	DayInProgress = "in_progress"
	DayCompleted  = "completed"
	DayFailed     = "failed"
)

const (
	DailyAttemptInProgress = "in_progress"
	DailyAttemptSubmitted  = "submitted"
	DailyAttemptGraded     = "graded"
)

// TotalDailyTests is the length of the daily track per course.
const TotalDailyTests = 45

type DailyTestConfig struct {
	gorm.Model
	CourseID               uint `gorm:"not null;uniqueIndex:idx_course_day"`
	DayNumber              int  `gorm:"not null;uniqueIndex:idx_course_day"`
	Title                  string
	QuestionCount          int     `gorm:"default:10"`
	TimeLimitMinutes       *int    // optional
	PassingScorePercentage float64 `gorm:"default:70"`
	MaxAttempts            int     `gorm:"default:0"` // 0 = unlimited, retakes are never capped
}

type DailyTestQuestion struct {
	gorm.Model
	TestConfigID   uint `gorm:"not null;uniqueIndex:idx_config_question;uniqueIndex:idx_config_order"`
	QuizQuestionID uint `gorm:"not null;uniqueIndex:idx_config_question"`
	OrderIndex     int  `gorm:"not null;uniqueIndex:idx_config_order"`
}

// DailyTestProgress is the per-day gating record: exactly one row per
// (enrollment, day), created lazily on the first attempt.
type DailyTestProgress struct {
	gorm.Model
	EnrollmentID  uint   `gorm:"not null;uniqueIndex:idx_enrollment_day"`
	DayNumber     int    `gorm:"not null;uniqueIndex:idx_enrollment_day"`
	Status        string `gorm:"default:locked"`
	BestScore     *float64
	BestAttemptID *uint
	TotalAttempts int
	StreakCount   int
	LastAttemptAt *time.Time
	CompletedAt   *time.Time
}

type DailyTestAttempt struct {
	gorm.Model
	EnrollmentID     uint `gorm:"not null;uniqueIndex:idx_enrollment_config_attempt"`
	TestConfigID     uint `gorm:"not null;uniqueIndex:idx_enrollment_config_attempt"`
	AttemptNumber    int  `gorm:"not null;uniqueIndex:idx_enrollment_config_attempt"`
	DayCompleted     bool
	StartedAt        time.Time
	SubmittedAt      *time.Time
	Score            int
	MaxScore         int
	PercentageScore  float64
	TimeTakenMinutes float64
	Status           string `gorm:"default:in_progress;index"`
}

// DailyTestResponse upserts by (attempt, question): re-answering a question
// before finalizing replaces the stored answer.
type DailyTestResponse struct {
	gorm.Model
	AttemptID        uint `gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID       uint `gorm:"not null;uniqueIndex:idx_attempt_question"`
	UserAnswer       string
	IsCorrect        bool
	PointsEarned     int
	TimeSpentSeconds int
}

// DailyTestAnalytics is the per-day bucket keyed by (enrollment, date).
type DailyTestAnalytics struct {
	gorm.Model
	EnrollmentID     uint   `gorm:"not null;uniqueIndex:idx_enrollment_date"`
	Date             string `gorm:"not null;uniqueIndex:idx_enrollment_date"` // YYYY-MM-DD
	TestsAvailable   int
	TestsCompleted   int
	TestsPassed      int
	TestsFailed      int
	TotalScore       float64
	AverageScore     float64
	TotalTimeMinutes float64
	StreakCount      int
}
