package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"project/backend/models"
	"project/backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a per-test in-memory database with the full schema.
// TranslateError mirrors the production connection so duplicate-key handling
// behaves the same under test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, utils.AutoMigrate(db))
	return db
}

func seedEnrollment(t *testing.T, db *gorm.DB) (*models.User, *models.Course, *models.Enrollment) {
	t.Helper()
	user := models.User{Username: "student", Email: "student@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Title: "Intro Course", IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	enrollment := models.Enrollment{UserID: user.ID, CourseID: course.ID, Status: "active", EnrolledAt: time.Now()}
	require.NoError(t, db.Create(&enrollment).Error)
	return &user, &course, &enrollment
}

// seedQuestionBank creates a category with n four-option questions, first
// option correct, one point each.
func seedQuestionBank(t *testing.T, db *gorm.DB, name string, n int) (*models.QuestionCategory, []models.Question) {
	t.Helper()
	category := models.QuestionCategory{Name: name}
	require.NoError(t, db.Create(&category).Error)
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			CategoryID:   category.ID,
			QuestionText: fmt.Sprintf("%s question %d", name, i+1),
			Difficulty:   "beginner",
			Points:       1,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&q).Error)
		for j := 0; j < 4; j++ {
			opt := models.QuestionOption{
				QuestionID: q.ID,
				OptionText: fmt.Sprintf("option %d", j+1),
				IsCorrect:  j == 0,
			}
			require.NoError(t, db.Create(&opt).Error)
		}
		require.NoError(t, db.Preload("Options").First(&q, q.ID).Error)
		questions = append(questions, q)
	}
	return &category, questions
}

// seedDailyDay creates a daily config for the day with n assigned quiz
// questions, correct answer "a", one point each.
func seedDailyDay(t *testing.T, db *gorm.DB, courseID uint, day, n int) (*models.DailyTestConfig, []models.QuizQuestion) {
	t.Helper()
	config := models.DailyTestConfig{
		CourseID:               courseID,
		DayNumber:              day,
		Title:                  fmt.Sprintf("Day %d", day),
		QuestionCount:          n,
		PassingScorePercentage: 70,
	}
	require.NoError(t, db.Create(&config).Error)
	questions := make([]models.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		q := models.QuizQuestion{
			QuestionText:  fmt.Sprintf("day %d question %d", day, i+1),
			Options:       datatypes.JSON([]byte(`{"a": "right", "b": "wrong"}`)),
			CorrectAnswer: "a",
			Points:        1,
			IsActive:      true,
		}
		require.NoError(t, db.Create(&q).Error)
		require.NoError(t, db.Create(&models.DailyTestQuestion{
			TestConfigID:   config.ID,
			QuizQuestionID: q.ID,
			OrderIndex:     i + 1,
		}).Error)
		questions = append(questions, q)
	}
	return &config, questions
}

func seedGrandtestQuestions(t *testing.T, db *gorm.DB, courseID uint, n int) []models.GrandtestQuestion {
	t.Helper()
	questions := make([]models.GrandtestQuestion, 0, n)
	for i := 0; i < n; i++ {
		q := models.GrandtestQuestion{
			CourseID:      courseID,
			OrderIndex:    i + 1,
			QuestionText:  fmt.Sprintf("final question %d", i+1),
			Options:       datatypes.JSON([]byte(`{"a": "right", "b": "wrong"}`)),
			CorrectAnswer: "a",
			Points:        1,
			IsActive:      true,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

// runDailyAttempt starts an attempt for the day and answers the given number
// of questions correctly, the rest wrong, then completes it.
func runDailyAttempt(t *testing.T, svc *DailyService, enrollmentID uint, day, correct int) *DailyAttemptResult {
	t.Helper()
	attempt, questions, err := svc.StartAttempt(enrollmentID, day)
	require.NoError(t, err)
	for i, q := range questions {
		answer := "a"
		if i >= correct {
			answer = "b"
		}
		_, err := svc.SubmitAnswer(attempt.ID, q.ID, answer, 5)
		require.NoError(t, err)
	}
	result, err := svc.CompleteAttempt(attempt.ID)
	require.NoError(t, err)
	return result
}
