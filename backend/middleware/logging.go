package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

func LoggingMiddleware(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()

		// Логируем информацию о запросе
		logger.Printf(
			"%s %s %s %d %dB %v",
			c.IP(),
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			len(c.Response().Body()),
			time.Since(start),
		)

		return err
	}
}
