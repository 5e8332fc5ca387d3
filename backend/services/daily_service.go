package services

import (
	"errors"
	"fmt"
	"time"

	"project/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyUnlockBar is the progression threshold: a day only counts as
// completed (and unlocks the next one) at 90% or better, regardless of the
// config's own passing_score_percentage. The two thresholds are decoupled
// on purpose: an attempt can pass at the config bar yet leave its day
// failed.
const DailyUnlockBar = 90.0

// DailyService drives the 45-day progression track per enrollment.
type DailyService struct {
	DB    *gorm.DB
	Store *QuestionStore
}

func NewDailyService(db *gorm.DB) *DailyService {
	return &DailyService{DB: db, Store: NewQuestionStore(db)}
}

type DailyAttemptResult struct {
	Attempt      models.DailyTestAttempt  `json:"attempt"`
	Progress     models.DailyTestProgress `json:"progress"`
	Passed       bool                     `json:"passed"`
	DayCompleted bool                     `json:"day_completed"`
	NextDay      int                      `json:"next_day"`
}

// NextAvailableDay walks the enrollment's progress rows in day order and
// returns the first day that is not yet completed at the unlock bar; with a
// clean slate it returns day 1, and past a fully green track the day after
// the last one. Progression is strictly sequential.
func (s *DailyService) NextAvailableDay(enrollmentID uint) (int, error) {
	var rows []models.DailyTestProgress
	if err := s.DB.Where("enrollment_id = ?", enrollmentID).
		Order("day_number").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load progress rows: %w", err)
	}
	if len(rows) == 0 {
		return 1, nil
	}
	for _, row := range rows {
		if row.Status == models.DayCompleted && row.BestScore != nil && *row.BestScore >= DailyUnlockBar {
			continue
		}
		return row.DayNumber, nil
	}
	return rows[len(rows)-1].DayNumber + 1, nil
}

// StartAttempt opens a new attempt for the given day. The gate is enforced
// here, server-side: a day beyond the next available one is rejected no
// matter what the client claims. The per-day progress row is upserted
// atomically so concurrent starts cannot create two rows.
func (s *DailyService) StartAttempt(enrollmentID uint, dayNumber int) (*models.DailyTestAttempt, []models.QuizQuestion, error) {
	if dayNumber < 1 || dayNumber > models.TotalDailyTests {
		return nil, nil, ErrNotFound
	}
	next, err := s.NextAvailableDay(enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if dayNumber > next {
		return nil, nil, ErrDayLocked
	}

	enrollment, err := s.loadEnrollment(enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	var config models.DailyTestConfig
	err = s.DB.Where("course_id = ? AND day_number = ?", enrollment.CourseID, dayNumber).
		First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load daily config: %w", err)
	}

	questions, err := s.Store.FetchDailyQuestions(config.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return nil, nil, ErrNoQuestions
	}

	now := time.Now()
	var attempt models.DailyTestAttempt
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		attempt = models.DailyTestAttempt{
			EnrollmentID: enrollmentID,
			TestConfigID: config.ID,
			StartedAt:    now,
			Status:       models.DailyAttemptInProgress,
		}
		if err := s.createNumberedAttempt(tx, &attempt); err != nil {
			return err
		}

		progress := models.DailyTestProgress{
			EnrollmentID:  enrollmentID,
			DayNumber:     dayNumber,
			Status:        models.DayInProgress,
			TotalAttempts: 1,
			LastAttemptAt: &now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "day_number"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":          models.DayInProgress,
				"total_attempts":  gorm.Expr("daily_test_progresses.total_attempts + 1"),
				"last_attempt_at": now,
				"updated_at":      now,
			}),
		}).Create(&progress).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &attempt, questions, nil
}

// createNumberedAttempt assigns the next attempt number for the
// (enrollment, config) pair. The unique index makes the read-then-insert
// race detectable; a duplicate-key loser recomputes and retries once.
func (s *DailyService) createNumberedAttempt(tx *gorm.DB, attempt *models.DailyTestAttempt) error {
	var maxAttempt int
	tx.Model(&models.DailyTestAttempt{}).
		Where("enrollment_id = ? AND test_config_id = ?", attempt.EnrollmentID, attempt.TestConfigID).
		Select("COALESCE(MAX(attempt_number), 0)").Scan(&maxAttempt)
	attempt.AttemptNumber = maxAttempt + 1
	err := tx.Create(attempt).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create attempt: %w", err)
	}
	tx.Model(&models.DailyTestAttempt{}).
		Where("enrollment_id = ? AND test_config_id = ?", attempt.EnrollmentID, attempt.TestConfigID).
		Select("COALESCE(MAX(attempt_number), 0)").Scan(&maxAttempt)
	attempt.ID = 0
	attempt.AttemptNumber = maxAttempt + 1
	if err := tx.Create(attempt).Error; err != nil {
		return fmt.Errorf("%w: attempt number", ErrConflict)
	}
	return nil
}

// SubmitAnswer grades one question and stores the response idempotently by
// (attempt, question): re-answering before the attempt is finalized updates
// the existing row in place.
func (s *DailyService) SubmitAnswer(attemptID, questionID uint, answer string, timeSpentSeconds int) (*models.DailyTestResponse, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.DailyAttemptInProgress {
		return nil, ErrAttemptFinalized
	}

	var assigned int64
	s.DB.Model(&models.DailyTestQuestion{}).
		Where("test_config_id = ? AND quiz_question_id = ?", attempt.TestConfigID, questionID).
		Count(&assigned)
	if assigned == 0 {
		return nil, ErrNotFound
	}
	question, err := s.Store.FetchQuizByID(questionID)
	if err != nil {
		return nil, err
	}

	isCorrect := GradeExactAnswer(question.CorrectAnswer, answer)
	points := PointsEarned(question.Points, isCorrect)

	var response models.DailyTestResponse
	err = s.DB.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&response).Error
	switch {
	case err == nil:
		response.UserAnswer = answer
		response.IsCorrect = isCorrect
		response.PointsEarned = points
		response.TimeSpentSeconds = timeSpentSeconds
		if err := s.DB.Save(&response).Error; err != nil {
			return nil, fmt.Errorf("update response: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		response = models.DailyTestResponse{
			AttemptID:        attemptID,
			QuestionID:       questionID,
			UserAnswer:       answer,
			IsCorrect:        isCorrect,
			PointsEarned:     points,
			TimeSpentSeconds: timeSpentSeconds,
		}
		if err := s.DB.Create(&response).Error; err != nil {
			return nil, fmt.Errorf("save response: %w", err)
		}
	default:
		return nil, fmt.Errorf("load response: %w", err)
	}
	return &response, nil
}

// CompleteAttempt finalizes an attempt and folds it into the day's progress.
// The denominator is the configured question count, so unanswered questions
// count against the score. The attempt passes at the config's own bar; the
// day only completes at the 90% unlock bar.
func (s *DailyService) CompleteAttempt(attemptID uint) (*DailyAttemptResult, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.DailyAttemptInProgress {
		return nil, ErrAttemptFinalized
	}
	var config models.DailyTestConfig
	if err := s.DB.First(&config, attempt.TestConfigID).Error; err != nil {
		return nil, fmt.Errorf("load daily config: %w", err)
	}

	var responses []models.DailyTestResponse
	if err := s.DB.Where("attempt_id = ?", attemptID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	totalScore := 0
	for _, r := range responses {
		totalScore += r.PointsEarned
	}
	maxScore := config.QuestionCount
	percentage := 0.0
	if maxScore > 0 {
		percentage = float64(totalScore) / float64(maxScore) * 100
	}
	passed := percentage >= config.PassingScorePercentage

	now := time.Now()
	var progress models.DailyTestProgress
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		attempt.Status = models.DailyAttemptSubmitted
		attempt.SubmittedAt = &now
		attempt.Score = totalScore
		attempt.MaxScore = maxScore
		attempt.PercentageScore = percentage
		attempt.TimeTakenMinutes = now.Sub(attempt.StartedAt).Minutes()
		attempt.DayCompleted = percentage >= DailyUnlockBar
		if err := tx.Save(attempt).Error; err != nil {
			return fmt.Errorf("finalize attempt: %w", err)
		}

		if err := tx.Where("enrollment_id = ? AND day_number = ?", attempt.EnrollmentID, config.DayNumber).
			First(&progress).Error; err != nil {
			return fmt.Errorf("load progress row: %w", err)
		}
		if progress.BestScore == nil || percentage > *progress.BestScore {
			best := percentage
			progress.BestScore = &best
			progress.BestAttemptID = &attempt.ID
		}
		if *progress.BestScore >= DailyUnlockBar {
			progress.Status = models.DayCompleted
			if progress.CompletedAt == nil {
				progress.CompletedAt = &now
			}
		} else {
			progress.Status = models.DayFailed
		}
		if err := tx.Save(&progress).Error; err != nil {
			return fmt.Errorf("update progress row: %w", err)
		}

		if err := s.recomputeStreak(tx, attempt.EnrollmentID); err != nil {
			return err
		}
		return s.upsertDailyAnalytics(tx, attempt.EnrollmentID, now)
	})
	if err != nil {
		return nil, err
	}

	// Re-read so the returned progress carries the streak written above.
	s.DB.Where("enrollment_id = ? AND day_number = ?", attempt.EnrollmentID, config.DayNumber).
		First(&progress)
	nextDay, err := s.NextAvailableDay(attempt.EnrollmentID)
	if err != nil {
		return nil, err
	}
	return &DailyAttemptResult{
		Attempt:      *attempt,
		Progress:     progress,
		Passed:       passed,
		DayCompleted: progress.Status == models.DayCompleted,
		NextDay:      nextDay,
	}, nil
}

// recomputeStreak rebuilds the streak from scratch: walk the progress rows
// from the highest day down and count consecutive completed days until the
// chain breaks. The count is written to every row for the enrollment.
func (s *DailyService) recomputeStreak(tx *gorm.DB, enrollmentID uint) error {
	var rows []models.DailyTestProgress
	if err := tx.Where("enrollment_id = ?", enrollmentID).
		Order("day_number DESC").Find(&rows).Error; err != nil {
		return fmt.Errorf("load progress for streak: %w", err)
	}
	streak := 0
	for _, row := range rows {
		if row.Status != models.DayCompleted {
			break
		}
		streak++
	}
	if err := tx.Model(&models.DailyTestProgress{}).
		Where("enrollment_id = ?", enrollmentID).
		Update("streak_count", streak).Error; err != nil {
		return fmt.Errorf("write streak: %w", err)
	}
	return nil
}

// upsertDailyAnalytics recomputes today's bucket for the enrollment from
// the progress and attempt rows and upserts it by (enrollment, date).
func (s *DailyService) upsertDailyAnalytics(tx *gorm.DB, enrollmentID uint, now time.Time) error {
	enrollment, err := s.loadEnrollmentTx(tx, enrollmentID)
	if err != nil {
		return err
	}
	var available int64
	tx.Model(&models.DailyTestConfig{}).
		Where("course_id = ?", enrollment.CourseID).Count(&available)

	var rows []models.DailyTestProgress
	if err := tx.Where("enrollment_id = ?", enrollmentID).Find(&rows).Error; err != nil {
		return fmt.Errorf("load progress for analytics: %w", err)
	}
	passed, failed := 0, 0
	totalScore, scored := 0.0, 0
	streak := 0
	for _, row := range rows {
		switch row.Status {
		case models.DayCompleted:
			passed++
		case models.DayFailed:
			failed++
		}
		if row.BestScore != nil {
			totalScore += *row.BestScore
			scored++
		}
		streak = row.StreakCount
	}
	average := 0.0
	if scored > 0 {
		average = totalScore / float64(scored)
	}
	var totalTime float64
	tx.Model(&models.DailyTestAttempt{}).
		Where("enrollment_id = ? AND status = ?", enrollmentID, models.DailyAttemptSubmitted).
		Select("COALESCE(SUM(time_taken_minutes), 0)").Scan(&totalTime)

	bucket := models.DailyTestAnalytics{
		EnrollmentID:     enrollmentID,
		Date:             now.Format("2006-01-02"),
		TestsAvailable:   int(available),
		TestsCompleted:   passed + failed,
		TestsPassed:      passed,
		TestsFailed:      failed,
		TotalScore:       totalScore,
		AverageScore:     average,
		TotalTimeMinutes: totalTime,
		StreakCount:      streak,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(&bucket).Error
	if err != nil {
		return fmt.Errorf("upsert daily analytics: %w", err)
	}
	return nil
}

type DailyConfigInput struct {
	CourseID               uint
	DayNumber              int
	Title                  string
	QuestionCount          int
	TimeLimitMinutes       *int
	PassingScorePercentage float64
	MaxAttempts            int
}

// CreateConfig inserts a daily test config. A (course, day) collision is
// recoverable: the engine renumbers to max(day)+1 for the course and
// retries once, so the caller-supplied day number is advisory under
// contention.
func (s *DailyService) CreateConfig(input DailyConfigInput) (*models.DailyTestConfig, error) {
	config := models.DailyTestConfig{
		CourseID:               input.CourseID,
		DayNumber:              input.DayNumber,
		Title:                  input.Title,
		QuestionCount:          input.QuestionCount,
		TimeLimitMinutes:       input.TimeLimitMinutes,
		PassingScorePercentage: input.PassingScorePercentage,
		MaxAttempts:            input.MaxAttempts,
	}
	if config.QuestionCount <= 0 {
		config.QuestionCount = 10
	}
	if config.PassingScorePercentage <= 0 {
		config.PassingScorePercentage = 70
	}

	err := s.DB.Create(&config).Error
	if err == nil {
		return &config, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("create daily config: %w", err)
	}
	var maxDay int
	s.DB.Model(&models.DailyTestConfig{}).
		Where("course_id = ?", input.CourseID).
		Select("COALESCE(MAX(day_number), 0)").Scan(&maxDay)
	config.ID = 0
	config.DayNumber = maxDay + 1
	if err := s.DB.Create(&config).Error; err != nil {
		return nil, fmt.Errorf("%w: day number", ErrConflict)
	}
	return &config, nil
}

// AssignQuestion attaches a quiz question to a config at an order index,
// idempotently three ways: an exact existing triple is returned unchanged, a
// question already assigned under another index has its index updated, and
// an order-index race is resolved by taking the next free index once.
func (s *DailyService) AssignQuestion(configID, questionID uint, orderIndex int) (*models.DailyTestQuestion, error) {
	var existing models.DailyTestQuestion
	err := s.DB.Where("test_config_id = ? AND quiz_question_id = ?", configID, questionID).
		First(&existing).Error
	if err == nil {
		if existing.OrderIndex == orderIndex {
			return &existing, nil
		}
		existing.OrderIndex = orderIndex
		if err := s.DB.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("update order index: %w", err)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load assignment: %w", err)
	}

	assignment := models.DailyTestQuestion{
		TestConfigID:   configID,
		QuizQuestionID: questionID,
		OrderIndex:     orderIndex,
	}
	err = s.DB.Create(&assignment).Error
	if err == nil {
		return &assignment, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	var maxIndex int
	s.DB.Model(&models.DailyTestQuestion{}).
		Where("test_config_id = ?", configID).
		Select("COALESCE(MAX(order_index), 0)").Scan(&maxIndex)
	assignment.ID = 0
	assignment.OrderIndex = maxIndex + 1
	if err := s.DB.Create(&assignment).Error; err != nil {
		return nil, fmt.Errorf("%w: order index", ErrConflict)
	}
	return &assignment, nil
}

func (s *DailyService) loadAttempt(attemptID uint) (*models.DailyTestAttempt, error) {
	var attempt models.DailyTestAttempt
	err := s.DB.First(&attempt, attemptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return &attempt, nil
}

func (s *DailyService) loadEnrollment(enrollmentID uint) (*models.Enrollment, error) {
	return s.loadEnrollmentTx(s.DB, enrollmentID)
}

func (s *DailyService) loadEnrollmentTx(tx *gorm.DB, enrollmentID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := tx.First(&enrollment, enrollmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	return &enrollment, nil
}
