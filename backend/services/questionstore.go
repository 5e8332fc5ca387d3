package services

import (
	"errors"
	"fmt"

	"project/backend/models"

	"gorm.io/gorm"
)

// QuestionStore is the read-only adapter over both question banks. All reads
// filter on is_active; store failures propagate wrapped so callers can treat
// them as fatal to the session but not to the process.
type QuestionStore struct {
	DB *gorm.DB
}

func NewQuestionStore(db *gorm.DB) *QuestionStore {
	return &QuestionStore{DB: db}
}

func (s *QuestionStore) FetchByCategoryAndDifficulty(categoryID uint, difficulty string, limit int) ([]models.Question, error) {
	var questions []models.Question
	q := s.DB.Preload("Options").
		Where("category_id = ? AND difficulty = ? AND is_active = ?", categoryID, difficulty, true)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("fetch questions by category: %w", err)
	}
	return questions, nil
}

func (s *QuestionStore) FetchByID(id uint) (*models.Question, error) {
	var question models.Question
	err := s.DB.Preload("Options").Where("is_active = ?", true).First(&question, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch question: %w", err)
	}
	return &question, nil
}

func (s *QuestionStore) FetchActive(limit int) ([]models.Question, error) {
	var questions []models.Question
	q := s.DB.Preload("Options").Where("is_active = ?", true).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("fetch active questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionStore) FetchQuizByID(id uint) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := s.DB.Where("is_active = ?", true).First(&question, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch quiz question: %w", err)
	}
	return &question, nil
}

// FetchDailyQuestions returns the questions assigned to a daily test config
// in their fixed order. No runtime shuffling.
func (s *QuestionStore) FetchDailyQuestions(configID uint) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	err := s.DB.
		Joins("JOIN daily_test_questions ON daily_test_questions.quiz_question_id = quiz_questions.id").
		Where("daily_test_questions.test_config_id = ? AND quiz_questions.is_active = ?", configID, true).
		Order("daily_test_questions.order_index").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("fetch daily questions: %w", err)
	}
	return questions, nil
}

// FetchGrandtestQuestions returns a course's exam pool sorted by order index.
func (s *QuestionStore) FetchGrandtestQuestions(courseID uint) ([]models.GrandtestQuestion, error) {
	var questions []models.GrandtestQuestion
	err := s.DB.
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("fetch grandtest questions: %w", err)
	}
	return questions, nil
}
