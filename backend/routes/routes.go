package routes

import (
	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// Courses / enrollment
	contentController := controllers.NewContentController(db, cfg)
	app.Post("/api/courses/:courseId/enroll", authMiddleware, contentController.Enroll)

	// MCQ test sessions
	mcqController := controllers.NewMCQController(db, cfg)
	tests := app.Group("/api/tests", authMiddleware)
	tests.Post("/:id/start", mcqController.StartTest)
	tests.Post("/sessions/:id/answer", mcqController.SubmitAnswer)
	tests.Post("/sessions/:id/complete", mcqController.CompleteTest)

	// Daily progression
	dailyController := controllers.NewDailyController(db, cfg)
	daily := app.Group("/api/daily", authMiddleware)
	daily.Get("/:enrollmentId/next-day", dailyController.GetNextDay)
	daily.Post("/:enrollmentId/days/:day/start", dailyController.StartDay)
	daily.Post("/attempts/:id/answer", dailyController.SubmitDailyAnswer)
	daily.Post("/attempts/:id/complete", dailyController.CompleteDailyAttempt)

	// Grandtest
	grandtestController := controllers.NewGrandtestController(db, cfg)
	grandtest := app.Group("/api/grandtest", authMiddleware)
	grandtest.Post("/:courseId/start", grandtestController.StartGrandtest)
	grandtest.Get("/:courseId/stats", grandtestController.GetGrandtestStats)
	grandtest.Post("/attempts/:id/answer", grandtestController.SubmitGrandtestAnswer)
	grandtest.Post("/attempts/:id/complete", grandtestController.CompleteGrandtest)

	// Analytics (read-only rollups)
	analyticsController := controllers.NewAnalyticsController(db, cfg)
	analytics := app.Group("/api/analytics", authMiddleware)
	analytics.Get("/tests", analyticsController.GetTestSummaries)
	analytics.Get("/categories", analyticsController.GetCategoryAccuracy)
	analytics.Get("/daily/:enrollmentId", analyticsController.GetDailyBuckets)
	analytics.Get("/daily/:enrollmentId/track", analyticsController.GetDailyTrack)

	// Admin routes for content and configuration
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Post("/courses", contentController.CreateCourse)
	admin.Post("/categories", contentController.CreateCategory)
	admin.Post("/questions", contentController.CreateQuestion)
	admin.Post("/quiz-questions", contentController.CreateQuizQuestion)
	admin.Post("/tests", mcqController.CreateTestConfig)
	admin.Post("/tests/:id/rules", mcqController.AddSelectionRule)
	admin.Post("/daily", dailyController.CreateDailyConfig)
	admin.Post("/daily/:id/questions", dailyController.AssignQuestion)
	admin.Post("/grandtest/questions", grandtestController.CreateGrandtestQuestion)
}
