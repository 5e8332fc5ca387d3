package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"project/backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MCQService runs ad-hoc test sessions: start → answer → complete, with an
// attempt cap read from the (user, config) analytics rollup.
type MCQService struct {
	DB       *gorm.DB
	Selector *QuestionSelector
}

func NewMCQService(db *gorm.DB) *MCQService {
	return &MCQService{
		DB:       db,
		Selector: NewQuestionSelector(NewQuestionStore(db)),
	}
}

// CategoryScore is the per-category correctness slice of a finished session.
type CategoryScore struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Answered     int     `json:"answered"`
	Correct      int     `json:"correct"`
	Percentage   float64 `json:"percentage"`
}

type TestResult struct {
	Session         models.TestSession `json:"session"`
	TotalScore      int                `json:"total_score"`
	MaxScore        int                `json:"max_score"`
	Percentage      float64            `json:"percentage"`
	Passed          bool               `json:"passed"`
	Categories      []CategoryScore    `json:"categories"`
	Recommendations []string           `json:"recommendations"`
}

// Start creates a session for the user, rejecting once the analytics rollup
// shows the configured attempt cap is reached. A missing rollup counts as
// zero prior attempts.
func (s *MCQService) Start(userID, configID uint) (*models.TestSession, []models.Question, error) {
	var config models.TestConfiguration
	err := s.DB.Preload("Rules").First(&config, configID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load test config: %w", err)
	}

	attemptsSoFar := 0
	var rollup models.TestAnalytics
	if err := s.DB.Where("user_id = ? AND test_config_id = ?", userID, configID).
		First(&rollup).Error; err == nil {
		attemptsSoFar = rollup.TotalAttempts
	}
	if config.MaxAttempts > 0 && attemptsSoFar >= config.MaxAttempts {
		return nil, nil, ErrMaxAttemptsReached
	}

	questions, err := s.Selector.SelectForConfig(&config)
	if err != nil {
		return nil, nil, err
	}
	maxPossible := 0
	for _, q := range questions {
		maxPossible += q.Points
	}

	session := models.TestSession{
		UserID:           userID,
		TestConfigID:     configID,
		AttemptNumber:    attemptsSoFar + 1,
		Status:           models.SessionInProgress,
		MaxPossibleScore: maxPossible,
		StartedAt:        time.Now(),
	}
	// The unique index on (user, config, attempt_number) closes the race
	// between two concurrent starts: the loser recomputes from the stored
	// max and retries once.
	if err := s.DB.Create(&session).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, fmt.Errorf("create session: %w", err)
		}
		var maxAttempt int
		s.DB.Model(&models.TestSession{}).
			Where("user_id = ? AND test_config_id = ?", userID, configID).
			Select("COALESCE(MAX(attempt_number), 0)").Scan(&maxAttempt)
		session.ID = 0
		session.AttemptNumber = maxAttempt + 1
		if err := s.DB.Create(&session).Error; err != nil {
			return nil, nil, fmt.Errorf("%w: session attempt number", ErrConflict)
		}
	}
	return &session, questions, nil
}

// SubmitAnswer grades one question and appends a response row. Submissions
// are append-only here: sessions are one-shot and a repeated submission for
// the same question records a second row rather than revising the first
// (daily tests behave differently, see DailyService.SubmitAnswer).
func (s *MCQService) SubmitAnswer(sessionID, questionID uint, selectedOptionIDs []uint, timeTakenSeconds int) (*models.TestResponse, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionCompleted
	}

	question, err := NewQuestionStore(s.DB).FetchByID(questionID)
	if err != nil {
		return nil, err
	}
	var correct []uint
	for _, opt := range question.Options {
		if opt.IsCorrect {
			correct = append(correct, opt.ID)
		}
	}
	isCorrect := GradeOptionSet(correct, selectedOptionIDs)

	raw, err := json.Marshal(selectedOptionIDs)
	if err != nil {
		return nil, fmt.Errorf("encode selected options: %w", err)
	}
	response := models.TestResponse{
		SessionID:         sessionID,
		QuestionID:        questionID,
		SelectedOptionIDs: datatypes.JSON(raw),
		IsCorrect:         isCorrect,
		PointsEarned:      PointsEarned(question.Points, isCorrect),
		TimeTakenSeconds:  timeTakenSeconds,
	}
	if err := s.DB.Create(&response).Error; err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	return &response, nil
}

// Complete finalizes the session. The denominator is the sum of points of
// the questions actually answered, not the originally planned set, so a
// partially answered session is not scored against questions never shown.
func (s *MCQService) Complete(sessionID uint) (*TestResult, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionCompleted
	}
	var config models.TestConfiguration
	if err := s.DB.First(&config, session.TestConfigID).Error; err != nil {
		return nil, fmt.Errorf("load test config: %w", err)
	}

	var responses []models.TestResponse
	if err := s.DB.Where("session_id = ?", sessionID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	questionIDs := make([]uint, 0, len(responses))
	for _, r := range responses {
		questionIDs = append(questionIDs, r.QuestionID)
	}
	var questions []models.Question
	if len(questionIDs) > 0 {
		if err := s.DB.Preload("Category").Find(&questions, questionIDs).Error; err != nil {
			return nil, fmt.Errorf("load answered questions: %w", err)
		}
	}
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	totalScore, actualMax := 0, 0
	for _, r := range responses {
		totalScore += r.PointsEarned
		actualMax += byID[r.QuestionID].Points
	}
	percentage := 0.0
	if actualMax > 0 {
		percentage = float64(totalScore) / float64(actualMax) * 100
	}

	now := time.Now()
	session.Status = models.SessionCompleted
	session.TotalScore = totalScore
	session.PercentageScore = percentage
	session.TimeTakenSeconds = int(now.Sub(session.StartedAt).Seconds())
	session.CompletedAt = &now
	if err := s.DB.Save(session).Error; err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	if err := s.updateRollup(session, &config, percentage, now); err != nil {
		return nil, err
	}

	categories := categoryScores(responses, byID)
	result := &TestResult{
		Session:         *session,
		TotalScore:      totalScore,
		MaxScore:        actualMax,
		Percentage:      percentage,
		Passed:          percentage >= config.PassingScorePercentage,
		Categories:      categories,
		Recommendations: buildRecommendations(percentage, config.PassingScorePercentage, categories),
	}
	return result, nil
}

func (s *MCQService) loadSession(sessionID uint) (*models.TestSession, error) {
	var session models.TestSession
	err := s.DB.First(&session, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// updateRollup upserts the (user, config) analytics row: cumulative mean,
// best score, first pass timestamp.
func (s *MCQService) updateRollup(session *models.TestSession, config *models.TestConfiguration, percentage float64, now time.Time) error {
	var rollup models.TestAnalytics
	err := s.DB.Where("user_id = ? AND test_config_id = ?", session.UserID, session.TestConfigID).
		First(&rollup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rollup = models.TestAnalytics{UserID: session.UserID, TestConfigID: session.TestConfigID}
	} else if err != nil {
		return fmt.Errorf("load analytics rollup: %w", err)
	}

	oldN := float64(rollup.TotalAttempts)
	rollup.AverageScore = (rollup.AverageScore*oldN + percentage) / (oldN + 1)
	rollup.TotalAttempts++
	if percentage > rollup.BestScore {
		rollup.BestScore = percentage
	}
	if rollup.FirstPassedAt == nil && percentage >= config.PassingScorePercentage {
		rollup.FirstPassedAt = &now
	}
	rollup.LastAttemptedAt = &now
	if err := s.DB.Save(&rollup).Error; err != nil {
		return fmt.Errorf("save analytics rollup: %w", err)
	}
	return nil
}

func categoryScores(responses []models.TestResponse, questions map[uint]models.Question) []CategoryScore {
	type bucket struct {
		name              string
		answered, correct int
	}
	buckets := map[uint]*bucket{}
	var order []uint
	for _, r := range responses {
		q, ok := questions[r.QuestionID]
		if !ok {
			continue
		}
		b := buckets[q.CategoryID]
		if b == nil {
			b = &bucket{name: q.Category.Name}
			buckets[q.CategoryID] = b
			order = append(order, q.CategoryID)
		}
		b.answered++
		if r.IsCorrect {
			b.correct++
		}
	}
	scores := make([]CategoryScore, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		scores = append(scores, CategoryScore{
			CategoryID:   id,
			CategoryName: b.name,
			Answered:     b.answered,
			Correct:      b.correct,
			Percentage:   float64(b.correct) / float64(b.answered) * 100,
		})
	}
	return scores
}

func buildRecommendations(percentage, passingBar float64, categories []CategoryScore) []string {
	var recs []string
	if percentage < passingBar {
		recs = append(recs, "Your overall score is below the passing bar. Review the course material and try again.")
	}
	for _, c := range categories {
		if c.Percentage < 70 {
			recs = append(recs, fmt.Sprintf("Focus on %q: you scored %.0f%% in this category.", c.CategoryName, c.Percentage))
		}
	}
	if percentage >= 90 {
		recs = append(recs, "Excellent work! You have mastered this material.")
	}
	return recs
}
