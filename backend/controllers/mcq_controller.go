package controllers

import (
	"strconv"

	"project/backend/config"
	"project/backend/models"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MCQController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.MCQService
}

func NewMCQController(db *gorm.DB, cfg *config.Config) *MCQController {
	return &MCQController{DB: db, Cfg: cfg, Service: services.NewMCQService(db)}
}

// StartTest godoc
// @Summary Start a test session
// @Description Assembles the question set and opens a new attempt
// @Tags tests
// @Accept json
// @Produce json
// @Param id path int true "Test configuration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /tests/{id}/start [post]
func (mc *MCQController) StartTest(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, mc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	configID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}

	session, questions, err := mc.Service.Start(userID, uint(configID))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"session":   sessionView(session),
		"questions": questionViews(questions),
	})
}

// SubmitAnswer godoc
// @Summary Submit an answer within a session
// @Tags tests
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /tests/sessions/{id}/answer [post]
func (mc *MCQController) SubmitAnswer(c *fiber.Ctx) error {
	session, err := mc.ownSession(c)
	if err != nil {
		return err
	}

	var input struct {
		QuestionID        uint   `json:"question_id"`
		SelectedOptionIDs []uint `json:"selected_option_ids"`
		TimeTakenSeconds  int    `json:"time_taken_seconds"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	response, err := mc.Service.SubmitAnswer(session.ID, input.QuestionID, input.SelectedOptionIDs, input.TimeTakenSeconds)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"question_id":   response.QuestionID,
		"is_correct":    response.IsCorrect,
		"points_earned": response.PointsEarned,
	})
}

// CompleteTest godoc
// @Summary Complete a test session
// @Description Finalizes scoring and returns the result breakdown
// @Tags tests
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} services.TestResult
// @Security ApiKeyAuth
// @Router /tests/sessions/{id}/complete [post]
func (mc *MCQController) CompleteTest(c *fiber.Ctx) error {
	session, err := mc.ownSession(c)
	if err != nil {
		return err
	}

	result, err := mc.Service.Complete(session.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

// CreateTestConfig godoc
// @Summary Create a test configuration
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.TestConfiguration
// @Security ApiKeyAuth
// @Router /admin/tests [post]
func (mc *MCQController) CreateTestConfig(c *fiber.Ctx) error {
	var cfg models.TestConfiguration
	if err := c.BodyParser(&cfg); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := mc.DB.Create(&cfg).Error; err != nil {
		return utils.InternalServerError(c, "Could not create test configuration")
	}
	return utils.Created(c, cfg)
}

// AddSelectionRule godoc
// @Summary Add a selection rule to a test configuration
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Test configuration ID"
// @Success 201 {object} models.TestSelectionRule
// @Security ApiKeyAuth
// @Router /admin/tests/{id}/rules [post]
func (mc *MCQController) AddSelectionRule(c *fiber.Ctx) error {
	configID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid test ID")
	}
	var rule models.TestSelectionRule
	if err := c.BodyParser(&rule); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	rule.TestConfigID = uint(configID)
	if err := mc.DB.Create(&rule).Error; err != nil {
		return utils.InternalServerError(c, "Could not create rule")
	}
	return utils.Created(c, rule)
}

// ownSession resolves the path session and checks it belongs to the token
// user. Completing or answering someone else's session is forbidden.
func (mc *MCQController) ownSession(c *fiber.Ctx) (*models.TestSession, error) {
	userID, err := utils.ExtractUserIDFromToken(c, mc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}
	sessionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid session ID")
	}
	var session models.TestSession
	if err := mc.DB.First(&session, sessionID).Error; err != nil {
		return nil, utils.NotFound(c, "Session not found")
	}
	if session.UserID != userID {
		return nil, utils.Forbidden(c, "Session belongs to another user")
	}
	return &session, nil
}

func sessionView(s *models.TestSession) fiber.Map {
	return fiber.Map{
		"id":                 s.ID,
		"attempt_number":     s.AttemptNumber,
		"status":             s.Status,
		"max_possible_score": s.MaxPossibleScore,
		"started_at":         s.StartedAt,
	}
}

// questionViews hides the correct flags from students: only option IDs and
// texts leave the server.
func questionViews(questions []models.Question) []fiber.Map {
	views := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		opts := make([]fiber.Map, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, fiber.Map{"id": o.ID, "text": o.OptionText})
		}
		views = append(views, fiber.Map{
			"id":       q.ID,
			"question": q.QuestionText,
			"type":     q.QuestionType,
			"points":   q.Points,
			"options":  opts,
		})
	}
	return views
}
