package controllers

import (
	"time"

	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ContentController covers the minimal content-management surface the
// engines read from: courses, enrollments, categories and both question
// banks. Everything else about content lives outside this service.
type ContentController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewContentController(db *gorm.DB, cfg *config.Config) *ContentController {
	return &ContentController{DB: db, Cfg: cfg}
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.Course
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *ContentController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	course.AuthorID = userID
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}
	return utils.Created(c, course)
}

// Enroll godoc
// @Summary Enroll the current user in a course
// @Tags courses
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 201 {object} models.Enrollment
// @Security ApiKeyAuth
// @Router /courses/{courseId}/enroll [post]
func (cc *ContentController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	courseID, err := c.ParamsInt("courseId")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Where("is_active = ?", true).First(&course, courseID).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   uint(courseID),
		EnrolledAt: time.Now(),
	}
	if err := cc.DB.Create(&enrollment).Error; err != nil {
		// повторная запись на курс возвращает существующую
		if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&enrollment).Error; err != nil {
			return utils.InternalServerError(c, "Could not enroll")
		}
	}
	return utils.Created(c, enrollment)
}

// CreateCategory godoc
// @Summary Create a question category
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.QuestionCategory
// @Security ApiKeyAuth
// @Router /admin/categories [post]
func (cc *ContentController) CreateCategory(c *fiber.Ctx) error {
	var category models.QuestionCategory
	if err := c.BodyParser(&category); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := cc.DB.Create(&category).Error; err != nil {
		return utils.InternalServerError(c, "Could not create category")
	}
	return utils.Created(c, category)
}

// CreateQuestion godoc
// @Summary Create a generic-bank question with options
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.Question
// @Security ApiKeyAuth
// @Router /admin/questions [post]
func (cc *ContentController) CreateQuestion(c *fiber.Ctx) error {
	var input struct {
		CategoryID   uint   `json:"category_id"`
		QuestionText string `json:"question_text"`
		QuestionType string `json:"question_type"`
		Difficulty   string `json:"difficulty"`
		Points       int    `json:"points"`
		Options      []struct {
			Text      string `json:"text"`
			IsCorrect bool   `json:"is_correct"`
		} `json:"options"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.QuestionText == "" || len(input.Options) < 2 {
		return utils.BadRequest(c, "A question needs text and at least two options")
	}

	question := models.Question{
		CategoryID:   input.CategoryID,
		QuestionText: input.QuestionText,
		QuestionType: input.QuestionType,
		Difficulty:   input.Difficulty,
		Points:       input.Points,
		IsActive:     true,
	}
	for _, o := range input.Options {
		question.Options = append(question.Options, models.QuestionOption{
			OptionText: o.Text,
			IsCorrect:  o.IsCorrect,
		})
	}
	if err := cc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}
	return utils.Created(c, question)
}

// CreateQuizQuestion godoc
// @Summary Create a single-answer quiz question
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} models.QuizQuestion
// @Security ApiKeyAuth
// @Router /admin/quiz-questions [post]
func (cc *ContentController) CreateQuizQuestion(c *fiber.Ctx) error {
	var question models.QuizQuestion
	if err := c.BodyParser(&question); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if question.QuestionText == "" || question.CorrectAnswer == "" {
		return utils.BadRequest(c, "A quiz question needs text and a correct answer")
	}
	if err := cc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}
	return utils.Created(c, question)
}
