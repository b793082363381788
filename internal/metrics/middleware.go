package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

func HTTPMetricsMiddleware(metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}

		metrics.RecordHTTPRequest(c.Method(), path,
			strconv.Itoa(c.Response().StatusCode()), time.Since(start))

		return err
	}
}
