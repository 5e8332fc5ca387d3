package services

import (
	"testing"
	"time"

	"project/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFirstDayIsAvailable(t *testing.T) {
	db := setupTestDB(t)
	_, _, enrollment := seedEnrollment(t, db)
	svc := NewDailyService(db)

	next, err := svc.NextAvailableDay(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	// Idempotent: asking again moves nothing.
	next, err = svc.NextAvailableDay(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestDailyDayGate(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	seedDailyDay(t, db, course.ID, 2, 10)
	svc := NewDailyService(db)

	_, _, err := svc.StartAttempt(enrollment.ID, 2)
	assert.ErrorIs(t, err, ErrDayLocked)

	_, _, err = svc.StartAttempt(enrollment.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.StartAttempt(enrollment.ID, models.TotalDailyTests+1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, questions, err := svc.StartAttempt(enrollment.ID, 1)
	require.NoError(t, err)
	assert.Len(t, questions, 10)
}

// A 70% attempt passes at the config bar but does not complete the day: the
// unlock bar is 90%, so the next available day stays put until a retake
// clears it.
func TestDailyPassWithoutUnlock(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	seedDailyDay(t, db, course.ID, 2, 10)
	svc := NewDailyService(db)

	result := runDailyAttempt(t, svc, enrollment.ID, 1, 7)
	assert.True(t, result.Passed)
	assert.False(t, result.DayCompleted)
	assert.Equal(t, models.DayFailed, result.Progress.Status)
	require.NotNil(t, result.Progress.BestScore)
	assert.InDelta(t, 70.0, *result.Progress.BestScore, 0.01)
	assert.Equal(t, 1, result.NextDay)

	// Retake at 90% completes the day and unlocks day 2.
	retake := runDailyAttempt(t, svc, enrollment.ID, 1, 9)
	assert.True(t, retake.Passed)
	assert.True(t, retake.DayCompleted)
	assert.Equal(t, models.DayCompleted, retake.Progress.Status)
	assert.InDelta(t, 90.0, *retake.Progress.BestScore, 0.01)
	assert.Equal(t, 2, retake.NextDay)

	_, _, err := svc.StartAttempt(enrollment.ID, 2)
	require.NoError(t, err)
}

func TestDailyBestScoreIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	svc := NewDailyService(db)

	first := runDailyAttempt(t, svc, enrollment.ID, 1, 8)
	require.NotNil(t, first.Progress.BestScore)
	assert.InDelta(t, 80.0, *first.Progress.BestScore, 0.01)

	// A worse retake must not pull the best score down.
	second := runDailyAttempt(t, svc, enrollment.ID, 1, 3)
	assert.InDelta(t, 80.0, *second.Progress.BestScore, 0.01)
	assert.Equal(t, 2, second.Progress.TotalAttempts)
}

func TestDailyAnswerUpsert(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	svc := NewDailyService(db)

	attempt, questions, err := svc.StartAttempt(enrollment.ID, 1)
	require.NoError(t, err)

	q := questions[0]
	first, err := svc.SubmitAnswer(attempt.ID, q.ID, "b", 5)
	require.NoError(t, err)
	assert.False(t, first.IsCorrect)

	// Re-answering before finalizing revises the same row in place.
	second, err := svc.SubmitAnswer(attempt.ID, q.ID, "a", 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsCorrect)
	assert.Equal(t, 7, second.TimeSpentSeconds)

	var rows int64
	db.Model(&models.DailyTestResponse{}).
		Where("attempt_id = ? AND question_id = ?", attempt.ID, q.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestDailyAnswerRejectsForeignQuestion(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	_, strayQuestions := seedDailyDay(t, db, course.ID, 2, 1)
	svc := NewDailyService(db)

	attempt, _, err := svc.StartAttempt(enrollment.ID, 1)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(attempt.ID, strayQuestions[0].ID, "a", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDailyUnansweredCountAgainstScore(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	svc := NewDailyService(db)

	attempt, questions, err := svc.StartAttempt(enrollment.ID, 1)
	require.NoError(t, err)
	// Answer only 5 of 10, all correct: the config count is the denominator.
	for _, q := range questions[:5] {
		_, err := svc.SubmitAnswer(attempt.ID, q.ID, "a", 5)
		require.NoError(t, err)
	}
	result, err := svc.CompleteAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Attempt.Score)
	assert.Equal(t, 10, result.Attempt.MaxScore)
	assert.InDelta(t, 50.0, result.Attempt.PercentageScore, 0.01)
	assert.False(t, result.Passed)
}

func TestDailyFinalizedAttemptIsClosed(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	_, questions := seedDailyDay(t, db, course.ID, 1, 10)
	svc := NewDailyService(db)

	result := runDailyAttempt(t, svc, enrollment.ID, 1, 9)
	_, err := svc.SubmitAnswer(result.Attempt.ID, questions[0].ID, "a", 5)
	assert.ErrorIs(t, err, ErrAttemptFinalized)
	_, err = svc.CompleteAttempt(result.Attempt.ID)
	assert.ErrorIs(t, err, ErrAttemptFinalized)
}

func TestDailyStreak(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	seedDailyDay(t, db, course.ID, 2, 10)
	seedDailyDay(t, db, course.ID, 3, 10)
	svc := NewDailyService(db)

	runDailyAttempt(t, svc, enrollment.ID, 1, 10)
	runDailyAttempt(t, svc, enrollment.ID, 2, 10)
	result := runDailyAttempt(t, svc, enrollment.ID, 3, 5)

	// Day 3 failed, so the streak of trailing completed days is broken.
	assert.Equal(t, 0, result.Progress.StreakCount)

	recovered := runDailyAttempt(t, svc, enrollment.ID, 3, 10)
	assert.Equal(t, 3, recovered.Progress.StreakCount)
	assert.Equal(t, 4, recovered.NextDay)
}

func TestDailyAttemptNumbering(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	config, _ := seedDailyDay(t, db, course.ID, 1, 10)
	svc := NewDailyService(db)

	runDailyAttempt(t, svc, enrollment.ID, 1, 5)
	runDailyAttempt(t, svc, enrollment.ID, 1, 5)
	attempt, _, err := svc.StartAttempt(enrollment.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, attempt.AttemptNumber)

	var progress models.DailyTestProgress
	require.NoError(t, db.Where("enrollment_id = ? AND day_number = ?", enrollment.ID, 1).
		First(&progress).Error)
	assert.Equal(t, 3, progress.TotalAttempts)
	assert.Equal(t, models.DayInProgress, progress.Status)

	var rows int64
	db.Model(&models.DailyTestAttempt{}).
		Where("enrollment_id = ? AND test_config_id = ?", enrollment.ID, config.ID).Count(&rows)
	assert.EqualValues(t, 3, rows)
}

func TestDailyAnalyticsBucket(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	seedDailyDay(t, db, course.ID, 2, 10)
	svc := NewDailyService(db)

	runDailyAttempt(t, svc, enrollment.ID, 1, 10)
	runDailyAttempt(t, svc, enrollment.ID, 2, 5)

	var bucket models.DailyTestAnalytics
	require.NoError(t, db.Where("enrollment_id = ? AND date = ?",
		enrollment.ID, time.Now().Format("2006-01-02")).First(&bucket).Error)
	assert.Equal(t, 2, bucket.TestsAvailable)
	assert.Equal(t, 2, bucket.TestsCompleted)
	assert.Equal(t, 1, bucket.TestsPassed)
	assert.Equal(t, 1, bucket.TestsFailed)
	assert.InDelta(t, 75.0, bucket.AverageScore, 0.01)

	// Same-day recompute overwrites the bucket, it does not duplicate it.
	var rows int64
	db.Model(&models.DailyTestAnalytics{}).Where("enrollment_id = ?", enrollment.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestDailyCreateConfigRenumbersOnCollision(t *testing.T) {
	db := setupTestDB(t)
	_, course, _ := seedEnrollment(t, db)
	svc := NewDailyService(db)

	first, err := svc.CreateConfig(DailyConfigInput{CourseID: course.ID, DayNumber: 1, Title: "one"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.DayNumber)
	assert.Equal(t, 10, first.QuestionCount)
	assert.InDelta(t, 70.0, first.PassingScorePercentage, 0.01)

	// Colliding day number lands on max+1 instead of failing.
	second, err := svc.CreateConfig(DailyConfigInput{CourseID: course.ID, DayNumber: 1, Title: "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.DayNumber)
}

func TestDailyAssignQuestionIdempotent(t *testing.T) {
	db := setupTestDB(t)
	_, course, _ := seedEnrollment(t, db)
	config, questions := seedDailyDay(t, db, course.ID, 1, 2)
	svc := NewDailyService(db)

	extra := models.QuizQuestion{QuestionText: "extra", CorrectAnswer: "a", Points: 1, IsActive: true}
	require.NoError(t, db.Create(&extra).Error)

	// Re-assigning an existing triple changes nothing.
	same, err := svc.AssignQuestion(config.ID, questions[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, same.OrderIndex)

	// Same question under a new index moves it.
	moved, err := svc.AssignQuestion(config.ID, questions[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, same.ID, moved.ID)
	assert.Equal(t, 5, moved.OrderIndex)

	// A taken order index resolves to the next free one.
	inserted, err := svc.AssignQuestion(config.ID, extra.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, inserted.OrderIndex)

	var rows int64
	db.Model(&models.DailyTestQuestion{}).Where("test_config_id = ?", config.ID).Count(&rows)
	assert.EqualValues(t, 3, rows)
}
