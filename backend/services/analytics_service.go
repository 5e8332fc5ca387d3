package services

import (
	"time"

	"project/backend/models"

	"gorm.io/gorm"
)

// AnalyticsService is the read-side aggregator. It holds no state machine of
// its own and its reads degrade to zeroed defaults when a rollup row is
// missing or the store read fails: dashboards should render, not error.
// Write-path scoring never goes through here.
type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// TestSummary reports the (user, config) rollup, zeroed when absent.
func (s *AnalyticsService) TestSummary(userID, configID uint) models.TestAnalytics {
	var rollup models.TestAnalytics
	if err := s.DB.Where("user_id = ? AND test_config_id = ?", userID, configID).
		First(&rollup).Error; err != nil {
		return models.TestAnalytics{UserID: userID, TestConfigID: configID}
	}
	return rollup
}

// UserTestSummaries lists every rollup the user has accumulated.
func (s *AnalyticsService) UserTestSummaries(userID uint) []models.TestAnalytics {
	var rollups []models.TestAnalytics
	if err := s.DB.Where("user_id = ?", userID).Find(&rollups).Error; err != nil {
		return []models.TestAnalytics{}
	}
	return rollups
}

// CategoryAccuracy is a per-category correctness rollup across all of a
// user's MCQ responses.
type CategoryAccuracy struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Answered     int     `json:"answered"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`
}

func (s *AnalyticsService) UserCategoryAccuracy(userID uint) []CategoryAccuracy {
	var rows []CategoryAccuracy
	err := s.DB.Model(&models.TestResponse{}).
		Select(`questions.category_id AS category_id,
			question_categories.name AS category_name,
			COUNT(*) AS answered,
			SUM(CASE WHEN test_responses.is_correct THEN 1 ELSE 0 END) AS correct`).
		Joins("JOIN test_sessions ON test_sessions.id = test_responses.session_id").
		Joins("JOIN questions ON questions.id = test_responses.question_id").
		Joins("JOIN question_categories ON question_categories.id = questions.category_id").
		Where("test_sessions.user_id = ?", userID).
		Group("questions.category_id, question_categories.name").
		Scan(&rows).Error
	if err != nil {
		return []CategoryAccuracy{}
	}
	for i := range rows {
		if rows[i].Answered > 0 {
			rows[i].Accuracy = float64(rows[i].Correct) / float64(rows[i].Answered) * 100
		}
	}
	return rows
}

// DailyBuckets returns the enrollment's per-day analytics rows for the
// inclusive date range, oldest first.
func (s *AnalyticsService) DailyBuckets(enrollmentID uint, from, to time.Time) []models.DailyTestAnalytics {
	var buckets []models.DailyTestAnalytics
	err := s.DB.Where("enrollment_id = ? AND date BETWEEN ? AND ?",
		enrollmentID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date").Find(&buckets).Error
	if err != nil {
		return []models.DailyTestAnalytics{}
	}
	return buckets
}

// DailyTrackSummary is the enrollment's overall track position.
type DailyTrackSummary struct {
	DaysCompleted int     `json:"days_completed"`
	DaysFailed    int     `json:"days_failed"`
	TotalAttempts int     `json:"total_attempts"`
	AverageScore  float64 `json:"average_score"`
	StreakCount   int     `json:"streak_count"`
	NextDay       int     `json:"next_day"`
}

func (s *AnalyticsService) DailyTrack(enrollmentID uint) DailyTrackSummary {
	summary := DailyTrackSummary{NextDay: 1}
	var rows []models.DailyTestProgress
	if err := s.DB.Where("enrollment_id = ?", enrollmentID).
		Order("day_number").Find(&rows).Error; err != nil {
		return summary
	}
	totalScore, scored := 0.0, 0
	for _, row := range rows {
		switch row.Status {
		case models.DayCompleted:
			summary.DaysCompleted++
		case models.DayFailed:
			summary.DaysFailed++
		}
		summary.TotalAttempts += row.TotalAttempts
		if row.BestScore != nil {
			totalScore += *row.BestScore
			scored++
		}
		summary.StreakCount = row.StreakCount
	}
	if scored > 0 {
		summary.AverageScore = totalScore / float64(scored)
	}
	if next, err := NewDailyService(s.DB).NextAvailableDay(enrollmentID); err == nil {
		summary.NextDay = next
	}
	return summary
}
