package controllers

import (
	"errors"

	"project/backend/services"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps the engines' sentinel errors onto HTTP responses.
// Anything unmapped is a store failure and comes back as a 500.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrMaxAttemptsReached),
		errors.Is(err, services.ErrDayLocked),
		errors.Is(err, services.ErrCooldownActive),
		errors.Is(err, services.ErrAttemptInFlight):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNoQuestions),
		errors.Is(err, services.ErrNotEnoughOptions),
		errors.Is(err, services.ErrSessionCompleted),
		errors.Is(err, services.ErrAttemptFinalized),
		errors.Is(err, services.ErrQuestionLimit),
		errors.Is(err, services.ErrAlreadyAnswered),
		errors.Is(err, services.ErrNotEnrolled):
		return utils.UnprocessableEntity(c, err.Error())
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}
