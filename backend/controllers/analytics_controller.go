package controllers

import (
	"strconv"
	"time"

	"project/backend/config"
	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.AnalyticsService
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Service: services.NewAnalyticsService(db)}
}

// GetTestSummaries godoc
// @Summary Per-test rollups for the current user
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /analytics/tests [get]
func (ac *AnalyticsController) GetTestSummaries(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	return c.JSON(fiber.Map{
		"summaries": ac.Service.UserTestSummaries(userID),
	})
}

// GetCategoryAccuracy godoc
// @Summary Per-category correctness across the user's test responses
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /analytics/categories [get]
func (ac *AnalyticsController) GetCategoryAccuracy(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	return c.JSON(fiber.Map{
		"categories": ac.Service.UserCategoryAccuracy(userID),
	})
}

// GetDailyBuckets godoc
// @Summary Daily analytics buckets for an enrollment
// @Description Defaults to the last 30 days when no range is given
// @Tags analytics
// @Produce json
// @Param enrollmentId path int true "Enrollment ID"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /analytics/daily/{enrollmentId} [get]
func (ac *AnalyticsController) GetDailyBuckets(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, ac.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	enrollmentID, err := strconv.Atoi(c.Params("enrollmentId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid enrollment ID")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := c.Query("start_date"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			return utils.BadRequest(c, "Invalid start_date format. Use YYYY-MM-DD")
		}
	}
	if e := c.Query("end_date"); e != "" {
		end, err = time.Parse("2006-01-02", e)
		if err != nil {
			return utils.BadRequest(c, "Invalid end_date format. Use YYYY-MM-DD")
		}
	}

	return c.JSON(fiber.Map{
		"buckets": ac.Service.DailyBuckets(uint(enrollmentID), start, end),
	})
}

// GetDailyTrack godoc
// @Summary Overall daily-track position for an enrollment
// @Tags analytics
// @Produce json
// @Param enrollmentId path int true "Enrollment ID"
// @Success 200 {object} services.DailyTrackSummary
// @Security ApiKeyAuth
// @Router /analytics/daily/{enrollmentId}/track [get]
func (ac *AnalyticsController) GetDailyTrack(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, ac.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	enrollmentID, err := strconv.Atoi(c.Params("enrollmentId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid enrollment ID")
	}
	return c.JSON(ac.Service.DailyTrack(uint(enrollmentID)))
}
