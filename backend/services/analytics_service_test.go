package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsDegradeToDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAnalyticsService(db)

	summary := svc.TestSummary(42, 7)
	assert.EqualValues(t, 42, summary.UserID)
	assert.Equal(t, 0, summary.TotalAttempts)
	assert.Zero(t, summary.BestScore)

	assert.Empty(t, svc.UserTestSummaries(42))
	assert.Empty(t, svc.UserCategoryAccuracy(42))
	assert.Empty(t, svc.DailyBuckets(42, time.Now().AddDate(0, 0, -30), time.Now()))

	track := svc.DailyTrack(42)
	assert.Equal(t, 1, track.NextDay)
	assert.Equal(t, 0, track.DaysCompleted)
}

func TestAnalyticsCategoryAccuracy(t *testing.T) {
	db := setupTestDB(t)
	user, _, _ := seedEnrollment(t, db)
	config, _ := seedMCQConfig(t, db, 4, 0)
	mcq := NewMCQService(db)

	session, questions, err := mcq.Start(user.ID, config.ID)
	require.NoError(t, err)
	for i, q := range questions {
		optionID := correctOption(q)
		if i%2 == 1 {
			optionID = wrongOption(q)
		}
		_, err := mcq.SubmitAnswer(session.ID, q.ID, []uint{optionID}, 5)
		require.NoError(t, err)
	}
	_, err = mcq.Complete(session.ID)
	require.NoError(t, err)

	rows := NewAnalyticsService(db).UserCategoryAccuracy(user.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "history", rows[0].CategoryName)
	assert.Equal(t, 4, rows[0].Answered)
	assert.Equal(t, 2, rows[0].Correct)
	assert.InDelta(t, 50.0, rows[0].Accuracy, 0.01)
}

func TestAnalyticsDailyTrack(t *testing.T) {
	db := setupTestDB(t)
	_, course, enrollment := seedEnrollment(t, db)
	seedDailyDay(t, db, course.ID, 1, 10)
	seedDailyDay(t, db, course.ID, 2, 10)
	daily := NewDailyService(db)

	runDailyAttempt(t, daily, enrollment.ID, 1, 10)
	runDailyAttempt(t, daily, enrollment.ID, 2, 5)

	track := NewAnalyticsService(db).DailyTrack(enrollment.ID)
	assert.Equal(t, 1, track.DaysCompleted)
	assert.Equal(t, 1, track.DaysFailed)
	assert.Equal(t, 2, track.TotalAttempts)
	assert.InDelta(t, 75.0, track.AverageScore, 0.01)
	assert.Equal(t, 2, track.NextDay)

	buckets := NewAnalyticsService(db).DailyBuckets(enrollment.ID,
		time.Now().AddDate(0, 0, -1), time.Now())
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].TestsCompleted)
}
