package controllers

import (
	"encoding/json"
	"strconv"

	"project/backend/config"
	"project/backend/models"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DailyController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.DailyService
}

func NewDailyController(db *gorm.DB, cfg *config.Config) *DailyController {
	return &DailyController{DB: db, Cfg: cfg, Service: services.NewDailyService(db)}
}

// GetNextDay godoc
// @Summary Get the next available day for an enrollment
// @Tags daily
// @Produce json
// @Param enrollmentId path int true "Enrollment ID"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /daily/{enrollmentId}/next-day [get]
func (dc *DailyController) GetNextDay(c *fiber.Ctx) error {
	enrollmentID, err := dc.ownEnrollment(c)
	if err != nil {
		return err
	}
	day, err := dc.Service.NextAvailableDay(enrollmentID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"next_day": day})
}

// StartDay godoc
// @Summary Start an attempt for a daily test
// @Description Rejects days beyond the next available one
// @Tags daily
// @Produce json
// @Param enrollmentId path int true "Enrollment ID"
// @Param day path int true "Day number (1-45)"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /daily/{enrollmentId}/days/{day}/start [post]
func (dc *DailyController) StartDay(c *fiber.Ctx) error {
	enrollmentID, err := dc.ownEnrollment(c)
	if err != nil {
		return err
	}
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil {
		return utils.BadRequest(c, "Invalid day number")
	}

	attempt, questions, err := dc.Service.StartAttempt(enrollmentID, day)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"attempt": fiber.Map{
			"id":             attempt.ID,
			"attempt_number": attempt.AttemptNumber,
			"started_at":     attempt.StartedAt,
		},
		"questions": quizQuestionViews(questions),
	})
}

// SubmitDailyAnswer godoc
// @Summary Submit (or revise) an answer within a daily attempt
// @Tags daily
// @Accept json
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /daily/attempts/{id}/answer [post]
func (dc *DailyController) SubmitDailyAnswer(c *fiber.Ctx) error {
	attempt, err := dc.ownAttempt(c)
	if err != nil {
		return err
	}

	var input struct {
		QuestionID       uint   `json:"question_id"`
		Answer           string `json:"answer"`
		TimeSpentSeconds int    `json:"time_spent_seconds"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	response, err := dc.Service.SubmitAnswer(attempt.ID, input.QuestionID, input.Answer, input.TimeSpentSeconds)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"question_id":   response.QuestionID,
		"is_correct":    response.IsCorrect,
		"points_earned": response.PointsEarned,
	})
}

// CompleteDailyAttempt godoc
// @Summary Complete a daily attempt
// @Description Scores the attempt and updates day progress, streak and analytics
// @Tags daily
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} services.DailyAttemptResult
// @Security ApiKeyAuth
// @Router /daily/attempts/{id}/complete [post]
func (dc *DailyController) CompleteDailyAttempt(c *fiber.Ctx) error {
	attempt, err := dc.ownAttempt(c)
	if err != nil {
		return err
	}

	result, err := dc.Service.CompleteAttempt(attempt.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

// CreateDailyConfig godoc
// @Summary Create a daily test configuration
// @Description A (course, day) collision silently renumbers to the next free day
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.DailyTestConfig
// @Security ApiKeyAuth
// @Router /admin/daily [post]
func (dc *DailyController) CreateDailyConfig(c *fiber.Ctx) error {
	var input struct {
		CourseID               uint    `json:"course_id"`
		DayNumber              int     `json:"day_number"`
		Title                  string  `json:"title"`
		QuestionCount          int     `json:"question_count"`
		TimeLimitMinutes       *int    `json:"time_limit_minutes"`
		PassingScorePercentage float64 `json:"passing_score_percentage"`
		MaxAttempts            int     `json:"max_attempts"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	cfg, err := dc.Service.CreateConfig(services.DailyConfigInput{
		CourseID:               input.CourseID,
		DayNumber:              input.DayNumber,
		Title:                  input.Title,
		QuestionCount:          input.QuestionCount,
		TimeLimitMinutes:       input.TimeLimitMinutes,
		PassingScorePercentage: input.PassingScorePercentage,
		MaxAttempts:            input.MaxAttempts,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, cfg)
}

// AssignQuestion godoc
// @Summary Assign a quiz question to a daily test config
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Daily config ID"
// @Success 200 {object} models.DailyTestQuestion
// @Security ApiKeyAuth
// @Router /admin/daily/{id}/questions [post]
func (dc *DailyController) AssignQuestion(c *fiber.Ctx) error {
	configID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid config ID")
	}
	var input struct {
		QuestionID uint `json:"question_id"`
		OrderIndex int  `json:"order_index"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	assignment, err := dc.Service.AssignQuestion(uint(configID), input.QuestionID, input.OrderIndex)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(assignment)
}

// ownEnrollment resolves the path enrollment and checks it belongs to the
// authenticated user. The gate does not trust client-side claims.
func (dc *DailyController) ownEnrollment(c *fiber.Ctx) (uint, error) {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return 0, utils.Unauthorized(c, "Unauthorized")
	}
	enrollmentID, err := strconv.Atoi(c.Params("enrollmentId"))
	if err != nil {
		return 0, utils.BadRequest(c, "Invalid enrollment ID")
	}
	var enrollment models.Enrollment
	if err := dc.DB.First(&enrollment, enrollmentID).Error; err != nil {
		return 0, utils.NotFound(c, "Enrollment not found")
	}
	if enrollment.UserID != userID {
		return 0, utils.Forbidden(c, "Enrollment belongs to another user")
	}
	return enrollment.ID, nil
}

// ownAttempt resolves the path attempt and checks its enrollment belongs to
// the token user.
func (dc *DailyController) ownAttempt(c *fiber.Ctx) (*models.DailyTestAttempt, error) {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}
	attemptID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid attempt ID")
	}
	var attempt models.DailyTestAttempt
	if err := dc.DB.First(&attempt, attemptID).Error; err != nil {
		return nil, utils.NotFound(c, "Attempt not found")
	}
	var enrollment models.Enrollment
	if err := dc.DB.First(&enrollment, attempt.EnrollmentID).Error; err != nil {
		return nil, utils.NotFound(c, "Enrollment not found")
	}
	if enrollment.UserID != userID {
		return nil, utils.Forbidden(c, "Attempt belongs to another user")
	}
	return &attempt, nil
}

// quizQuestionViews strips correct answers before questions leave the server.
func quizQuestionViews(questions []models.QuizQuestion) []fiber.Map {
	views := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		// A malformed options blob degrades to an empty map; the question
		// still renders.
		options := map[string]string{}
		if err := json.Unmarshal(q.Options, &options); err != nil {
			options = map[string]string{}
		}
		views = append(views, fiber.Map{
			"id":       q.ID,
			"question": q.QuestionText,
			"options":  options,
			"points":   q.Points,
		})
	}
	return views
}
