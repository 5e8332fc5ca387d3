package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

func TestMain(m *testing.M) {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	var err error
	db, err = gorm.Open(sqlite.Open("file:routes?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}
	if err := utils.AutoMigrate(db); err != nil {
		panic(err)
	}

	app = fiber.New()
	SetupRoutes(app, db, cfg)

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerUser(t *testing.T, username string) string {
	t.Helper()
	resp, body := doJSON(t, "POST", "/api/auth/register", "", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"passwordhash": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func adminToken(t *testing.T, username string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admin := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         "admin",
	}
	require.NoError(t, db.Create(&admin).Error)
	token, err := utils.GenerateJWTToken(admin.ID, cfg)
	require.NoError(t, err)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	registerUser(t, "alice")

	resp, body := doJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = doJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	resp, _ := doJSON(t, "GET", "/api/daily/1/next-day", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, "POST", "/api/tests/1/start", "garbage-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	studentToken := registerUser(t, "bob")

	resp, _ := doJSON(t, "POST", "/api/admin/courses", studentToken, map[string]string{
		"Title": "Sneaky Course",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, "POST", "/api/admin/courses", adminToken(t, "root"), map[string]string{
		"Title": "Real Course",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

// Session and attempt endpoints are scoped to the token user: holding a
// valid token for some other account must not let anyone answer or finalize
// a foreign attempt by ID.
func TestAttemptOwnership(t *testing.T) {
	ownerToken := registerUser(t, "dave")
	intruderToken := registerUser(t, "eve")

	var owner models.User
	require.NoError(t, db.Where("username = ?", "dave").First(&owner).Error)

	category := models.QuestionCategory{Name: "ownership"}
	require.NoError(t, db.Create(&category).Error)
	for i := 0; i < 2; i++ {
		q := models.Question{
			CategoryID:   category.ID,
			QuestionText: fmt.Sprintf("ownership question %d", i+1),
			Points:       1,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&q).Error)
		require.NoError(t, db.Create(&models.QuestionOption{QuestionID: q.ID, OptionText: "yes", IsCorrect: true}).Error)
		require.NoError(t, db.Create(&models.QuestionOption{QuestionID: q.ID, OptionText: "no"}).Error)
	}
	testConfig := models.TestConfiguration{Title: "ownership", TotalQuestions: 2, PassingScorePercentage: 70}
	require.NoError(t, db.Create(&testConfig).Error)

	resp, body := doJSON(t, "POST", fmt.Sprintf("/api/tests/%d/start", testConfig.ID), ownerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sessionID := uint(body["session"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/answer", sessionID), intruderToken, map[string]interface{}{
		"question_id": 1, "selected_option_ids": []uint{1},
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/complete", sessionID), intruderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The owner is unaffected.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/complete", sessionID), ownerToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Same for the timed exam.
	course := models.Course{Title: "Ownership Course", IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: owner.ID, CourseID: course.ID, EnrolledAt: time.Now()}).Error)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.GrandtestQuestion{
			CourseID:      course.ID,
			OrderIndex:    i + 1,
			QuestionText:  fmt.Sprintf("exam question %d", i+1),
			CorrectAnswer: "a",
			Points:        1,
			IsActive:      true,
		}).Error)
	}
	resp, body = doJSON(t, "POST", fmt.Sprintf("/api/grandtest/%d/start", course.ID), ownerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	attemptID := uint(body["attempt"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/grandtest/attempts/%d/answer", attemptID), intruderToken, map[string]interface{}{
		"question_id": 1, "answer": "a",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/grandtest/attempts/%d/complete", attemptID), intruderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// And for daily attempts.
	dailyConfig := models.DailyTestConfig{CourseID: course.ID, DayNumber: 1, QuestionCount: 1, PassingScorePercentage: 70}
	require.NoError(t, db.Create(&dailyConfig).Error)
	quiz := models.QuizQuestion{QuestionText: "daily ownership", CorrectAnswer: "a", Points: 1, IsActive: true}
	require.NoError(t, db.Create(&quiz).Error)
	require.NoError(t, db.Create(&models.DailyTestQuestion{TestConfigID: dailyConfig.ID, QuizQuestionID: quiz.ID, OrderIndex: 1}).Error)

	var enrollment models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", owner.ID, course.ID).First(&enrollment).Error)
	resp, body = doJSON(t, "POST", fmt.Sprintf("/api/daily/%d/days/1/start", enrollment.ID), ownerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	dailyAttemptID := uint(body["attempt"].(map[string]interface{})["id"].(float64))

	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/daily/attempts/%d/answer", dailyAttemptID), intruderToken, map[string]interface{}{
		"question_id": quiz.ID, "answer": "a",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/daily/attempts/%d/complete", dailyAttemptID), intruderToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSessionFlowOverHTTP(t *testing.T) {
	token := registerUser(t, "carol")

	category := models.QuestionCategory{Name: "http-flow"}
	require.NoError(t, db.Create(&category).Error)
	var questionIDs []uint
	correctByQuestion := map[uint]uint{}
	for i := 0; i < 2; i++ {
		q := models.Question{
			CategoryID:   category.ID,
			QuestionText: fmt.Sprintf("flow question %d", i+1),
			Points:       1,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&q).Error)
		for j := 0; j < 3; j++ {
			opt := models.QuestionOption{QuestionID: q.ID, OptionText: fmt.Sprintf("opt %d", j), IsCorrect: j == 0}
			require.NoError(t, db.Create(&opt).Error)
			if opt.IsCorrect {
				correctByQuestion[q.ID] = opt.ID
			}
		}
		questionIDs = append(questionIDs, q.ID)
	}
	testConfig := models.TestConfiguration{Title: "http flow", TotalQuestions: 2, PassingScorePercentage: 70}
	require.NoError(t, db.Create(&testConfig).Error)

	resp, body := doJSON(t, "POST", fmt.Sprintf("/api/tests/%d/start", testConfig.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	session := body["session"].(map[string]interface{})
	sessionID := uint(session["id"].(float64))
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 2)

	// Served questions must not leak correct flags.
	first := questions[0].(map[string]interface{})
	opts := first["options"].([]interface{})
	for _, o := range opts {
		_, leaked := o.(map[string]interface{})["is_correct"]
		assert.False(t, leaked)
	}

	for _, qID := range questionIDs {
		resp, answer := doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/answer", sessionID), token, map[string]interface{}{
			"question_id":         qID,
			"selected_option_ids": []uint{correctByQuestion[qID]},
			"time_taken_seconds":  5,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, answer["is_correct"])
	}

	resp, result := doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/complete", sessionID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, result["passed"])
	assert.InDelta(t, 100.0, result["percentage"].(float64), 0.01)

	// Completing twice is rejected.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("/api/tests/sessions/%d/complete", sessionID), token, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
