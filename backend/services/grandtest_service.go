package services

import (
	"errors"
	"fmt"
	"time"

	"project/backend/models"

	"gorm.io/gorm"
)

// Grandtest shape: exactly 5 questions against a single 5-minute budget for
// the whole session. There is no per-question limit; per-question time is
// recorded for analytics only. The server clock is authoritative; the
// client countdown is display-only.
const (
	GrandtestQuestionCount = 5
	GrandtestTimeLimit     = 5 * time.Minute
	GrandtestPassBar       = 90.0
	GrandtestCooldown      = 24 * time.Hour
)

// GrandtestService runs the timed final exam with a 24-hour retry cooldown.
type GrandtestService struct {
	DB    *gorm.DB
	Store *QuestionStore

	now func() time.Time // swapped in tests
}

func NewGrandtestService(db *gorm.DB) *GrandtestService {
	return &GrandtestService{DB: db, Store: NewQuestionStore(db), now: time.Now}
}

// GrandtestOutcome is returned from answer submission and completion. A
// timeout is a terminal state, not an error: TimedOut is set and the
// attempt comes back finalized with unanswered questions zero-scored.
type GrandtestOutcome struct {
	Attempt             models.GrandtestAttempt   `json:"attempt"`
	Response            *models.GrandtestResponse `json:"response,omitempty"`
	Finalized           bool                      `json:"finalized"`
	TimedOut            bool                      `json:"timed_out"`
	TimeRemainingSec    int                       `json:"time_remaining_sec"`
	CertificateEligible bool                      `json:"certificate_eligible"`
}

type GrandtestStats struct {
	TotalAttempts     int        `json:"total_attempts"`
	BestScore         float64    `json:"best_score"`
	Passed            bool       `json:"passed"`
	LastAttemptAt     *time.Time `json:"last_attempt_at"`
	CanRetake         bool       `json:"can_retake"`
	NextAvailableDate *time.Time `json:"next_available_date"`
}

// Start opens an attempt for the user's enrollment in the course. Rejected
// when an attempt is already in flight or while the 24-hour cooldown since
// the last completed attempt is running. The cooldown applies after a pass
// as well, a passed user simply has no reason to retake.
func (s *GrandtestService) Start(userID, courseID uint) (*models.GrandtestAttempt, []models.GrandtestQuestion, error) {
	var enrollment models.Enrollment
	err := s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load enrollment: %w", err)
	}

	var inFlight int64
	s.DB.Model(&models.GrandtestAttempt{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.GrandtestInProgress).
		Count(&inFlight)
	if inFlight > 0 {
		return nil, nil, ErrAttemptInFlight
	}

	if last := s.lastCompletedAttempt(userID, courseID); last != nil {
		if s.now().Sub(*last.CompletedAt) < GrandtestCooldown {
			return nil, nil, ErrCooldownActive
		}
	}

	questions, err := s.Store.FetchGrandtestQuestions(courseID)
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return nil, nil, ErrNoQuestions
	}
	if len(questions) > GrandtestQuestionCount {
		questions = questions[:GrandtestQuestionCount]
	}

	attempt := models.GrandtestAttempt{
		UserID:           userID,
		CourseID:         courseID,
		EnrollmentID:     enrollment.ID,
		StartedAt:        s.now(),
		TimeLimitMinutes: int(GrandtestTimeLimit.Minutes()),
		TotalQuestions:   GrandtestQuestionCount,
		Status:           models.GrandtestInProgress,
	}
	if err := s.DB.Create(&attempt).Error; err != nil {
		return nil, nil, fmt.Errorf("create attempt: %w", err)
	}
	return &attempt, questions, nil
}

// SubmitAnswer grades one question and advances. The whole-session budget
// is revalidated on every submission: once it is spent the attempt is
// force-completed as a timeout with whatever answers were recorded.
// Answering past the fifth question is rejected.
func (s *GrandtestService) SubmitAnswer(attemptID, questionID uint, answer string, timeSpentSeconds int) (*GrandtestOutcome, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.GrandtestInProgress {
		return nil, ErrAttemptFinalized
	}

	if s.remaining(attempt) <= 0 {
		return s.finalize(attempt, models.GrandtestTimeout)
	}
	if attempt.QuestionsAnswered >= attempt.TotalQuestions {
		return nil, ErrQuestionLimit
	}

	// Only the served set is answerable: the same first-N slice finalize
	// scores against. A course question outside it must not reach grading.
	question, err := s.servedQuestion(attempt, questionID)
	if err != nil {
		return nil, err
	}

	var answered int64
	s.DB.Model(&models.GrandtestResponse{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&answered)
	if answered > 0 {
		return nil, ErrAlreadyAnswered
	}

	isCorrect := GradeExactAnswer(question.CorrectAnswer, answer)
	response := models.GrandtestResponse{
		AttemptID:        attemptID,
		QuestionID:       questionID,
		UserAnswer:       answer,
		IsCorrect:        isCorrect,
		PointsEarned:     PointsEarned(question.Points, isCorrect),
		TimeSpentSeconds: timeSpentSeconds,
	}
	if err := s.DB.Create(&response).Error; err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}

	attempt.QuestionsAnswered++
	if isCorrect {
		attempt.CorrectAnswers++
	}
	if err := s.DB.Save(attempt).Error; err != nil {
		return nil, fmt.Errorf("update attempt: %w", err)
	}

	if attempt.QuestionsAnswered >= attempt.TotalQuestions {
		outcome, err := s.finalize(attempt, models.GrandtestCompleted)
		if err != nil {
			return nil, err
		}
		outcome.Response = &response
		return outcome, nil
	}
	return &GrandtestOutcome{
		Attempt:          *attempt,
		Response:         &response,
		TimeRemainingSec: int(s.remaining(attempt).Seconds()),
	}, nil
}

// Complete finalizes the attempt explicitly. If the budget already ran out
// the attempt closes as a timeout instead.
func (s *GrandtestService) Complete(attemptID uint) (*GrandtestOutcome, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.GrandtestInProgress {
		return nil, ErrAttemptFinalized
	}
	status := models.GrandtestCompleted
	if s.remaining(attempt) <= 0 {
		status = models.GrandtestTimeout
	}
	return s.finalize(attempt, status)
}

// finalize computes the authoritative score: earned points over the full
// points of the served question set, so unanswered questions score zero.
// Passed is derived here and nowhere else.
func (s *GrandtestService) finalize(attempt *models.GrandtestAttempt, status string) (*GrandtestOutcome, error) {
	questions, err := s.Store.FetchGrandtestQuestions(attempt.CourseID)
	if err != nil {
		return nil, err
	}
	if len(questions) > attempt.TotalQuestions {
		questions = questions[:attempt.TotalQuestions]
	}
	maxPoints := 0
	for _, q := range questions {
		maxPoints += q.Points
	}
	var responses []models.GrandtestResponse
	if err := s.DB.Where("attempt_id = ?", attempt.ID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	earned := 0
	for _, r := range responses {
		earned += r.PointsEarned
	}
	percentage := 0.0
	if maxPoints > 0 {
		percentage = float64(earned) / float64(maxPoints) * 100
	}

	now := s.now()
	attempt.Status = status
	attempt.CompletedAt = &now
	attempt.ScorePercentage = percentage
	attempt.Passed = percentage >= GrandtestPassBar
	if err := s.DB.Save(attempt).Error; err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}
	return &GrandtestOutcome{
		Attempt:             *attempt,
		Finalized:           true,
		TimedOut:            status == models.GrandtestTimeout,
		CertificateEligible: attempt.Passed,
	}, nil
}

// Stats reports retake state for the (user, course) pair. No attempts yet
// degrades to zeroed stats with CanRetake true.
func (s *GrandtestService) Stats(userID, courseID uint) (*GrandtestStats, error) {
	var attempts []models.GrandtestAttempt
	err := s.DB.Where("user_id = ? AND course_id = ? AND completed_at IS NOT NULL", userID, courseID).
		Order("completed_at DESC").Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	stats := &GrandtestStats{CanRetake: true}
	if len(attempts) == 0 {
		return stats, nil
	}
	last := attempts[0]
	stats.TotalAttempts = len(attempts)
	stats.LastAttemptAt = last.CompletedAt
	for _, a := range attempts {
		if a.ScorePercentage > stats.BestScore {
			stats.BestScore = a.ScorePercentage
		}
		if a.Passed {
			stats.Passed = true
		}
	}
	next := last.CompletedAt.Add(GrandtestCooldown)
	stats.NextAvailableDate = &next
	stats.CanRetake = !s.now().Before(next)
	return stats, nil
}

// servedQuestion resolves a submitted question ID against the attempt's
// served set.
func (s *GrandtestService) servedQuestion(attempt *models.GrandtestAttempt, questionID uint) (*models.GrandtestQuestion, error) {
	questions, err := s.Store.FetchGrandtestQuestions(attempt.CourseID)
	if err != nil {
		return nil, err
	}
	if len(questions) > attempt.TotalQuestions {
		questions = questions[:attempt.TotalQuestions]
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, ErrNotFound
}

// remaining is the unspent share of the whole-session budget.
func (s *GrandtestService) remaining(attempt *models.GrandtestAttempt) time.Duration {
	return attempt.StartedAt.Add(GrandtestTimeLimit).Sub(s.now())
}

func (s *GrandtestService) lastCompletedAttempt(userID, courseID uint) *models.GrandtestAttempt {
	var attempt models.GrandtestAttempt
	err := s.DB.Where("user_id = ? AND course_id = ? AND completed_at IS NOT NULL", userID, courseID).
		Order("completed_at DESC").First(&attempt).Error
	if err != nil {
		return nil
	}
	return &attempt
}

func (s *GrandtestService) loadAttempt(attemptID uint) (*models.GrandtestAttempt, error) {
	var attempt models.GrandtestAttempt
	err := s.DB.First(&attempt, attemptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return &attempt, nil
}
