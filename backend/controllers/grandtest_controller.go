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

type GrandtestController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.GrandtestService
}

func NewGrandtestController(db *gorm.DB, cfg *config.Config) *GrandtestController {
	return &GrandtestController{DB: db, Cfg: cfg, Service: services.NewGrandtestService(db)}
}

// StartGrandtest godoc
// @Summary Start the timed final exam for a course
// @Description 5 questions against a single 5-minute budget; blocked while the 24h cooldown runs
// @Tags grandtest
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /grandtest/{courseId}/start [post]
func (gc *GrandtestController) StartGrandtest(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	attempt, questions, err := gc.Service.Start(userID, uint(courseID))
	if err != nil {
		return serviceError(c, err)
	}

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
	return c.JSON(fiber.Map{
		"attempt": fiber.Map{
			"id":                 attempt.ID,
			"started_at":         attempt.StartedAt,
			"time_limit_minutes": attempt.TimeLimitMinutes,
			"total_questions":    attempt.TotalQuestions,
		},
		"questions": views,
	})
}

// SubmitGrandtestAnswer godoc
// @Summary Submit an answer and advance
// @Description The server re-checks the session budget; an expired attempt finalizes as timeout
// @Tags grandtest
// @Accept json
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} services.GrandtestOutcome
// @Security ApiKeyAuth
// @Router /grandtest/attempts/{id}/answer [post]
func (gc *GrandtestController) SubmitGrandtestAnswer(c *fiber.Ctx) error {
	attempt, err := gc.ownAttempt(c)
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

	outcome, err := gc.Service.SubmitAnswer(attempt.ID, input.QuestionID, input.Answer, input.TimeSpentSeconds)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(outcome)
}

// CompleteGrandtest godoc
// @Summary Complete the exam attempt
// @Tags grandtest
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} services.GrandtestOutcome
// @Security ApiKeyAuth
// @Router /grandtest/attempts/{id}/complete [post]
func (gc *GrandtestController) CompleteGrandtest(c *fiber.Ctx) error {
	attempt, err := gc.ownAttempt(c)
	if err != nil {
		return err
	}

	outcome, err := gc.Service.Complete(attempt.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(outcome)
}

// ownAttempt resolves the path attempt and checks it belongs to the token
// user.
func (gc *GrandtestController) ownAttempt(c *fiber.Ctx) (*models.GrandtestAttempt, error) {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}
	attemptID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid attempt ID")
	}
	var attempt models.GrandtestAttempt
	if err := gc.DB.First(&attempt, attemptID).Error; err != nil {
		return nil, utils.NotFound(c, "Attempt not found")
	}
	if attempt.UserID != userID {
		return nil, utils.Forbidden(c, "Attempt belongs to another user")
	}
	return &attempt, nil
}

// GetGrandtestStats godoc
// @Summary Exam stats and retake availability for the current user
// @Tags grandtest
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} services.GrandtestStats
// @Security ApiKeyAuth
// @Router /grandtest/{courseId}/stats [get]
func (gc *GrandtestController) GetGrandtestStats(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := strconv.Atoi(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	stats, err := gc.Service.Stats(userID, uint(courseID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}

// CreateGrandtestQuestion godoc
// @Summary Add a question to a course's exam pool
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.GrandtestQuestion
// @Security ApiKeyAuth
// @Router /admin/grandtest/questions [post]
func (gc *GrandtestController) CreateGrandtestQuestion(c *fiber.Ctx) error {
	var question models.GrandtestQuestion
	if err := c.BodyParser(&question); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := gc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}
	return utils.Created(c, question)
}
